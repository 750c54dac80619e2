package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "a**@*******.com", SanitizedEmail("ana@example.com"))
	assert.Equal(t, "b@****.***.ar", SanitizedEmail("b@club.com.ar"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("no-at-sign"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("a@b@c"))
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("refresh_token=abc"))
	assert.True(t, SanitizeQueryString("Code=123456"))
	assert.False(t, SanitizeQueryString("page=2"))
	assert.False(t, SanitizeQueryString(""))
}

func TestAuditLogger_LogAuthAttempt(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	audit.LogAuthAttempt(AuditEvent{
		EventType:     "login_failed",
		UserID:        "user-1",
		FailureReason: "invalid_credentials",
		Metadata:      map[string]string{"attempts": "3"},
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "login_failed", record["event_type"])
	assert.Equal(t, "user-1", record["user_id"])
	assert.Equal(t, "invalid_credentials", record["failure_reason"])
	assert.Equal(t, "3", record["attempts"])
	assert.NotContains(t, record, "ip_address")
}

func TestAuditLogger_LogAccountAction(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	audit.LogAccountAction("two_factor_enabled", "user-1", nil)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "account", record["audit_type"])
}
