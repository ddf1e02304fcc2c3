package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/session"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

type flash struct {
	Kind FlashKind
	Text string
}

type fakeHost struct {
	inputs    map[string]string
	file      *validation.DocumentUpload
	forms     []Form
	navigated []entity.Page
	flashes   []flash
}

func newFakeHost(inputs map[string]string) *fakeHost {
	return &fakeHost{inputs: inputs}
}

func (h *fakeHost) Input(field string) string { return h.inputs[field] }
func (h *fakeHost) File(string) *validation.DocumentUpload { return h.file }
func (h *fakeHost) RenderForm(form Form) { h.forms = append(h.forms, form) }
func (h *fakeHost) Navigate(page entity.Page) { h.navigated = append(h.navigated, page) }
func (h *fakeHost) Flash(kind FlashKind, text string) { h.flashes = append(h.flashes, flash{kind, text}) }
func (h *fakeHost) lastForm() Form { return h.forms[len(h.forms)-1] }
func (h *fakeHost) lastFlash() flash { return h.flashes[len(h.flashes)-1] }

type mapSessionStore struct {
	mu   sync.Mutex
	data map[string]*entity.Session
}

func (s *mapSessionStore) Load(_ context.Context, id string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (s *mapSessionStore) Save(_ context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.ID] = sess
	return nil
}

func (s *mapSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

type orchestratorFixture struct {
	orch   *Orchestrator
	auth   *AuthUsecase
	store  *memoryStore
	sender *MockSender
}

func newOrchestratorFixture(codes *fixedCodes) *orchestratorFixture {
	store := newMemoryStore()
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	auth, mm := newTestAuth(store, sender, codes, nil)
	auth.now = time.Now
	sessions := session.NewManager(&mapSessionStore{data: map[string]*entity.Session{}}, 300*time.Second, mm, zap.NewNop())
	return &orchestratorFixture{
		orch:   NewOrchestrator(auth, sessions, zap.NewNop()),
		auth:   auth,
		store:  store,
		sender: sender,
	}
}

func signupInputs(nationalID string) map[string]string {
	return map[string]string{
		FieldName:            "Asha Rao",
		FieldEmail:           "asha@example.com",
		FieldNationalID:      nationalID,
		FieldBirthday:        "1990-04-12",
		FieldGender:          "Female",
		FieldPassword:        "s3cretpass",
		FieldConfirmPassword: "s3cretpass",
	}
}

func TestOrchestrator_SignupScenario(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{signup: []string{"482913"}})
	ctx := context.Background()
	sess := entity.NewSession("s1", time.Now())

	require.NoError(t, f.orch.Navigate(ctx, newFakeHost(nil), sess, entity.PageSignup))
	assert.Equal(t, entity.PageSignup, sess.Page)

	host := newFakeHost(signupInputs("12345"))
	host.file = validDocument()
	err := f.orch.Submit(ctx, host, sess)
	assert.True(t, validation.IsValidationError(err))
	assert.Equal(t, entity.PageSignup, sess.Page)
	assert.Equal(t, flash{FlashError, "Invalid national ID number format. Should be 12 digits."}, host.lastFlash())
	assert.Equal(t, "12345", host.lastForm().Values[FieldNationalID])
	assert.Empty(t, host.lastForm().Values[FieldPassword])

	host = newFakeHost(signupInputs("123456789012"))
	host.file = validDocument()
	require.NoError(t, f.orch.Submit(ctx, host, sess))
	assert.Equal(t, entity.PageVerify, sess.Page)
	assert.Equal(t, []entity.Page{entity.PageVerify}, host.navigated)
	assert.Equal(t, "A verification code has been sent to asha@example.com", host.lastForm().Info)

	host = newFakeHost(map[string]string{FieldCode: "000000"})
	err = f.orch.Submit(ctx, host, sess)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, entity.PageVerify, sess.Page)
	exists, _ := f.store.EmailExists(ctx, "asha@example.com")
	assert.False(t, exists)

	host = newFakeHost(map[string]string{FieldCode: "482913"})
	require.NoError(t, f.orch.Submit(ctx, host, sess))
	assert.Equal(t, entity.PageLogin, sess.Page)
	assert.Nil(t, sess.Pending)
	exists, _ = f.store.EmailExists(ctx, "asha@example.com")
	assert.True(t, exists)

	host = newFakeHost(map[string]string{
		FieldLoginMethod: MethodNationalID,
		FieldIdentifier:  "123456789012",
		FieldPassword:    "s3cretpass",
	})
	require.NoError(t, f.orch.Submit(ctx, host, sess))
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "asha@example.com", sess.Principal.Email)
	assert.Equal(t, entity.PageLogin, sess.Page)
	assert.Equal(t, "s1", sess.RotatedFrom)
	assert.NotEqual(t, "s1", sess.ID)
}

func TestOrchestrator_NavigationTable(t *testing.T) {
	pages := []entity.Page{entity.PageLogin, entity.PageSignup, entity.PageVerify, entity.PageForgotPassword, entity.PageResetPassword}
	allowed := map[[2]entity.Page]bool{
		{entity.PageLogin, entity.PageSignup}:         true,
		{entity.PageLogin, entity.PageForgotPassword}: true,
		{entity.PageSignup, entity.PageLogin}:         true,
		{entity.PageVerify, entity.PageLogin}:         true,
		{entity.PageForgotPassword, entity.PageLogin}: true,
		{entity.PageResetPassword, entity.PageLogin}:  true,
	}

	for _, from := range pages {
		for _, to := range pages {
			assert.Equal(t, allowed[[2]entity.Page{from, to}], CanNavigate(from, to), "%s -> %s", from, to)
		}
	}
}

func TestOrchestrator_InvalidTransition(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{signup: []string{"482913"}})
	sess := entity.NewSession("s1", time.Now())
	host := newFakeHost(nil)

	err := f.orch.Navigate(context.Background(), host, sess, entity.PageResetPassword)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, entity.PageLogin, sess.Page)
	assert.Empty(t, host.navigated)
	assert.Equal(t, FlashError, host.lastFlash().Kind)

	err = f.orch.Resend(context.Background(), host, sess)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrchestrator_LeavingVerifyAbandonsSignup(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{signup: []string{"482913"}})
	sess := pendingSession(t, "482913")
	sess.LastActivity = time.Now()

	require.NoError(t, f.orch.Navigate(context.Background(), newFakeHost(nil), sess, entity.PageLogin))
	assert.Equal(t, entity.PageLogin, sess.Page)
	assert.Nil(t, sess.Pending)
}

func TestOrchestrator_LeavingResetDropsResetEmail(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{reset: []string{"Ab3dEf7h"}})
	sess := entity.NewSession("s1", time.Now())
	sess.Page = entity.PageResetPassword
	sess.ResetEmail = "asha@example.com"

	require.NoError(t, f.orch.Navigate(context.Background(), newFakeHost(nil), sess, entity.PageLogin))
	assert.Empty(t, sess.ResetEmail)
}

func TestOrchestrator_PasswordResetFlow(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{reset: []string{"Ab3dEf7h"}})
	ctx := context.Background()
	require.NoError(t, f.store.CreateUser(ctx, &entity.User{Email: "asha@example.com", NationalID: "123456789012", Password: "x"}))
	sess := entity.NewSession("s1", time.Now())
	sess.Page = entity.PageForgotPassword

	host := newFakeHost(map[string]string{FieldLoginMethod: MethodEmail, FieldIdentifier: "nobody@example.com"})
	err := f.orch.Submit(ctx, host, sess)
	assert.Error(t, err)
	assert.Equal(t, "Email not registered", host.lastFlash().Text)
	assert.Equal(t, entity.PageForgotPassword, sess.Page)

	host = newFakeHost(map[string]string{FieldLoginMethod: MethodEmail, FieldIdentifier: "asha@example.com"})
	require.NoError(t, f.orch.Submit(ctx, host, sess))
	assert.Equal(t, entity.PageResetPassword, sess.Page)
	assert.Equal(t, "Enter the reset code sent to asha@example.com", host.lastForm().Info)

	host = newFakeHost(map[string]string{FieldToken: "Ab3dEf7h", FieldPassword: "newpassword", FieldConfirmPassword: "newpassword"})
	require.NoError(t, f.orch.Submit(ctx, host, sess))
	assert.Equal(t, entity.PageLogin, sess.Page)
	assert.Equal(t, flash{FlashSuccess, "Password reset successful"}, host.lastFlash())
}

func TestOrchestrator_IdleSessionExpires(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{signup: []string{"482913"}})
	sess := entity.NewSession("s1", time.Now())
	sess.Principal = &entity.Principal{UserID: "u1", Email: "asha@example.com", Name: "Asha Rao"}
	sess.LastActivity = time.Now().Add(-301 * time.Second)
	host := newFakeHost(nil)

	err := f.orch.Render(context.Background(), host, sess)
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, entity.PageLogin, sess.Page)
	assert.Equal(t, flash{FlashWarning, session.ExpiredMessage}, host.flashes[0])
	assert.Equal(t, entity.PageLogin, host.lastForm().Page)
}

func TestOrchestrator_RenderAuthenticated(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{signup: []string{"482913"}})
	sess := entity.NewSession("s1", time.Now())
	sess.Principal = &entity.Principal{UserID: "u1", Name: "Asha Rao"}
	host := newFakeHost(nil)

	require.NoError(t, f.orch.Render(context.Background(), host, sess))
	assert.Empty(t, host.forms)
	assert.Equal(t, flash{FlashInfo, "Logged in as Asha Rao"}, host.lastFlash())
}

func TestOrchestrator_Logout(t *testing.T) {
	f := newOrchestratorFixture(&fixedCodes{signup: []string{"482913"}})
	sess := entity.NewSession("s1", time.Now())
	sess.Principal = &entity.Principal{UserID: "u1", Name: "Asha Rao"}
	host := newFakeHost(nil)

	require.NoError(t, f.orch.Logout(context.Background(), host, sess))
	assert.False(t, sess.Authenticated())
	assert.NotEqual(t, "s1", sess.ID)
	assert.Equal(t, entity.PageLogin, host.lastForm().Page)
}

func TestUserMessage(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{err: ErrInvalidCode, want: "Invalid verification code. Please try again."},
		{err: ErrExpiredToken, want: "Reset token expired"},
		{err: &NotRegisteredError{ByEmail: false}, want: "National ID number not registered"},
		{err: session.ErrSessionExpired, want: session.ExpiredMessage},
		{err: context.DeadlineExceeded, want: "Something went wrong. Please try again."},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, UserMessage(tc.err))
	}
}
