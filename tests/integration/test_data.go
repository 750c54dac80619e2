//go:build integration

package integration

import (
	"fmt"

	"github.com/google/uuid"
)

// TestPassword satisfies the password policy used for seeded users
const TestPassword = "TestPassword123!"

// TestUser generates unique test user credentials
func TestUser(suffix string) (email, password string) {
	email = fmt.Sprintf("test-%s-%s@example.com", uuid.NewString()[:8], suffix)
	return email, TestPassword
}
