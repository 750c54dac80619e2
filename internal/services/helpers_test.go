package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/models"
	pkglogger "github.com/BradenHooton/fieldauth/pkg/logger"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock implements auth.Clock at a fixed instant
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time             { return c.now }
func (c fixedClock) AddMinutes(n int) time.Time { return c.now.Add(time.Duration(n) * time.Minute) }
func (c fixedClock) IsPast(t time.Time) bool    { return !c.now.Before(t) }

// NewTestUser creates a user whose password is "correct-password"
func NewTestUser(id, email, name string) *models.User {
	return &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: "hashed:correct-password",
		Role:         models.RoleUser,
		CreatedAt:    testNow.Add(-24 * time.Hour),
		UpdatedAt:    testNow.Add(-24 * time.Hour),
	}
}

// fakeHasher "hashes" by prefixing, and counts comparisons
type fakeHasher struct {
	compares atomic.Int32
}

func (h *fakeHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("empty password")
	}
	return "hashed:" + plaintext, nil
}

func (h *fakeHasher) Compare(plaintext, hash string) bool {
	h.compares.Add(1)
	return hash == "hashed:"+plaintext
}

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	EnableTwoFactorFunc    func(ctx context.Context, id, sealedSecret string) error
	UpdateLockoutStateFunc func(ctx context.Context, id string, expectedAttempts int, state models.LockoutState) error
}

func (m *MockCredentialStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) EnableTwoFactor(ctx context.Context, id, sealedSecret string) error {
	if m.EnableTwoFactorFunc != nil {
		return m.EnableTwoFactorFunc(ctx, id, sealedSecret)
	}
	return nil
}

func (m *MockCredentialStore) UpdateLockoutState(ctx context.Context, id string, expectedAttempts int, state models.LockoutState) error {
	if m.UpdateLockoutStateFunc != nil {
		return m.UpdateLockoutStateFunc(ctx, id, expectedAttempts, state)
	}
	return nil
}

// memoryCredentialStore is a CredentialStore with the same compare-and-swap
// semantics as the Postgres repository
type memoryCredentialStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	updates       int
	lockoutWrites int
}

func newMemoryCredentialStore(users ...*models.User) *memoryCredentialStore {
	store := &memoryCredentialStore{users: make(map[string]*models.User)}
	for _, u := range users {
		c := *u
		store.users[u.ID] = &c
	}
	return store
}

func (m *memoryCredentialStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memoryCredentialStore) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memoryCredentialStore) EnableTwoFactor(_ context.Context, id, sealedSecret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[id]
	if !ok || stored.IsTwoFactorEnabled {
		return models.ErrConflict
	}
	m.updates++
	stored.IsTwoFactorEnabled = true
	stored.TwoFactorSecret = &sealedSecret
	return nil
}

func (m *memoryCredentialStore) UpdateLockoutState(_ context.Context, id string, expectedAttempts int, state models.LockoutState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[id]
	if !ok || stored.LoginAttempts != expectedAttempts {
		return models.ErrConflict
	}
	m.lockoutWrites++
	stored.LoginAttempts = state.LoginAttempts
	if state.LockAccount != nil {
		stored.LockAccount = state.LockAccount
	}
	stored.AccountBlock = stored.AccountBlock || state.AccountBlock
	return nil
}

func (m *memoryCredentialStore) get(t *testing.T, id string) models.User {
	t.Helper()
	u, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	return *u
}

// memorySessionStore records the order of session operations
type memorySessionStore struct {
	mu        sync.Mutex
	tokens    map[string]models.RefreshToken
	ops       []string
	nextID    int
	CreateErr error
	DeleteErr error
	FindErr   error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{tokens: make(map[string]models.RefreshToken)}
}

func (m *memorySessionStore) Create(_ context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "create:"+token.UserID)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	created := models.RefreshToken{
		ID:        fmt.Sprintf("refresh-%d", m.nextID),
		UserID:    token.UserID,
		Role:      token.Role,
		CreatedAt: testNow,
	}
	m.tokens[created.ID] = created
	return &created, nil
}

func (m *memorySessionStore) FindByValue(_ context.Context, value string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	token, ok := m.tokens[value]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &token, nil
}

func (m *memorySessionStore) DeleteAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "delete:"+userID)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for id, token := range m.tokens {
		if token.UserID == userID {
			delete(m.tokens, id)
		}
	}
	return nil
}

func (m *memorySessionStore) countFor(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, token := range m.tokens {
		if token.UserID == userID {
			n++
		}
	}
	return n
}

// memoryEnrollmentStore implements EnrollmentStore
type memoryEnrollmentStore struct {
	pending map[string]string
	GetErr  error
}

func newMemoryEnrollmentStore() *memoryEnrollmentStore {
	return &memoryEnrollmentStore{pending: make(map[string]string)}
}

func (m *memoryEnrollmentStore) Put(_ context.Context, userID, sealedSecret string) error {
	m.pending[userID] = sealedSecret
	return nil
}

func (m *memoryEnrollmentStore) Get(_ context.Context, userID string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	sealed, ok := m.pending[userID]
	if !ok {
		return "", models.ErrNotFound
	}
	return sealed, nil
}

func (m *memoryEnrollmentStore) Delete(_ context.Context, userID string) error {
	delete(m.pending, userID)
	return nil
}

// memoryAttemptLimiter implements TwoFactorAttemptLimiter without a window
type memoryAttemptLimiter struct {
	max      int
	counts   map[string]int
	CheckErr error
}

func newMemoryAttemptLimiter(limit int) *memoryAttemptLimiter {
	return &memoryAttemptLimiter{max: limit, counts: make(map[string]int)}
}

func (m *memoryAttemptLimiter) Check(_ context.Context, userID string) error {
	if m.CheckErr != nil {
		return m.CheckErr
	}
	if m.counts[userID] >= m.max {
		return models.ErrLimitExceeded
	}
	return nil
}

func (m *memoryAttemptLimiter) RecordFailure(_ context.Context, userID string) error {
	m.counts[userID]++
	return nil
}

func (m *memoryAttemptLimiter) Reset(_ context.Context, userID string) error {
	delete(m.counts, userID)
	return nil
}

// stubSigner implements TokenSigner
type stubSigner struct {
	calls atomic.Int32
	err   error
}

func (s *stubSigner) GenerateAccessToken(userID string, role models.Role) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return "access:" + userID + ":" + string(role), nil
}

// authFixture wires an AuthService against in-memory stores
type authFixture struct {
	users    *memoryCredentialStore
	sessions *memorySessionStore
	signer   *stubSigner
	hasher   *fakeHasher
	clock    fixedClock
	issuer   *SessionIssuer
	service  *AuthService
}

func newAuthFixture(users ...*models.User) *authFixture {
	f := &authFixture{
		users:    newMemoryCredentialStore(users...),
		sessions: newMemorySessionStore(),
		signer:   &stubSigner{},
		hasher:   &fakeHasher{},
		clock:    fixedClock{now: testNow},
	}
	f.issuer = NewSessionIssuer(f.sessions, f.signer, testLogger())
	f.service = newTestAuthService(f.users, f.issuer, f.hasher, f.clock)
	return f
}

func newTestAuthService(users CredentialStore, issuer *SessionIssuer, hasher *fakeHasher, clock auth.Clock) *AuthService {
	logger := testLogger()
	return NewAuthService(users, issuer, hasher, clock, auth.DefaultLockoutPolicy(), logger, pkglogger.NewAuditLogger(logger))
}
