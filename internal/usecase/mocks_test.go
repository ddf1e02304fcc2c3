package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

type MockCredentialStore struct{ mock.Mock }

func (m *MockCredentialStore) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) NationalIDExists(ctx context.Context, nationalID string) (bool, error) {
	args := m.Called(ctx, nationalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) CreateUser(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockCredentialStore) FindByIdentifier(ctx context.Context, identifier string, isEmail bool) (*entity.User, error) {
	args := m.Called(ctx, identifier, isEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockCredentialStore) SetResetToken(ctx context.Context, identifier string, isEmail bool, token string, expiry time.Time) error {
	return m.Called(ctx, identifier, isEmail, token, expiry).Error(0)
}

func (m *MockCredentialStore) ConsumeResetToken(ctx context.Context, email, token string, now time.Time, passwordHash string) error {
	return m.Called(ctx, email, token, now, passwordHash).Error(0)
}

type MockSender struct{ mock.Mock }

func (m *MockSender) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishUserRegistered(ctx context.Context, event UserRegisteredEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishPasswordReset(ctx context.Context, event PasswordResetEvent) error {
	return m.Called(ctx, event).Error(0)
}

// fixedCodes hands out the queued codes in order, repeating the last one.
type fixedCodes struct {
	signup []string
	reset  []string
}

func (c *fixedCodes) SignupCode() (string, error) { return next(&c.signup), nil }
func (c *fixedCodes) ResetToken() (string, error) { return next(&c.reset), nil }

func next(queue *[]string) string {
	q := *queue
	if len(q) > 1 {
		*queue = q[1:]
	}
	return q[0]
}

// memoryStore is a CredentialStore keeping users in a map keyed by email.
// A non-nil writeErr fails the next reset write once.
type memoryStore struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	writeErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]*entity.User{}}
}

func (s *memoryStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[email]
	return ok, nil
}

func (s *memoryStore) NationalIDExists(_ context.Context, nationalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byNationalID(nationalID) != nil, nil
}

func (s *memoryStore) CreateUser(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	if s.byNationalID(user.NationalID) != nil {
		return repository.ErrDuplicateNationalID
	}
	user.ID = primitive.NewObjectID()
	stored := *user
	s.users[user.Email] = &stored
	return nil
}

func (s *memoryStore) FindByIdentifier(_ context.Context, identifier string, isEmail bool) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(identifier, isEmail)
	if u == nil {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) SetResetToken(_ context.Context, identifier string, isEmail bool, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(identifier, isEmail)
	if u == nil {
		return repository.ErrUserNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (s *memoryStore) ConsumeResetToken(_ context.Context, email, token string, now time.Time, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr; err != nil {
		s.writeErr = nil
		return err
	}
	u, ok := s.users[email]
	if !ok || u.ResetToken == "" || u.ResetToken != token ||
		u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.After(now) {
		return repository.ErrResetTokenRejected
	}
	u.Password = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	return nil
}

func (s *memoryStore) find(identifier string, isEmail bool) *entity.User {
	if isEmail {
		return s.users[identifier]
	}
	return s.byNationalID(identifier)
}

func (s *memoryStore) byNationalID(id string) *entity.User {
	for _, u := range s.users {
		if u.NationalID == id {
			return u
		}
	}
	return nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig() AuthConfig {
	return AuthConfig{
		SignupCodeTTL:   30 * time.Minute,
		ResetTokenTTL:   time.Hour,
		MaxCodeAttempts: 5,
		BcryptCost:      bcrypt.MinCost,
	}
}

func newTestAuth(store CredentialStore, sender *MockSender, codes CodeGenerator, publisher EventPublisher) (*AuthUsecase, *metrics.MetricsManager) {
	mm := metrics.NewMetricsManager("test")
	u := NewAuthUsecase(store, sender, codes, publisher, testAuthConfig(), mm, zap.NewNop())
	u.now = func() time.Time { return testNow }
	return u, mm
}

func validSignupForm() validation.SignupForm {
	return validation.SignupForm{
		Name:            "Asha Rao",
		Email:           "asha@example.com",
		NationalID:      "123456789012",
		Birthday:        "1990-04-12",
		Gender:          "Female",
		Password:        "s3cretpass",
		ConfirmPassword: "s3cretpass",
	}
}

func validDocument() *validation.DocumentUpload {
	content := []byte("%PDF-1.4 test")
	return &validation.DocumentUpload{
		Filename:    "id.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     content,
	}
}
