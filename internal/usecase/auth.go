package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/mailer"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

type AuthConfig struct {
	SignupCodeTTL   time.Duration
	ResetTokenTTL   time.Duration
	MaxCodeAttempts int
	BcryptCost      int
}

// AuthUsecase implements signup verification, credential checks and
// password reset on top of the credential store and the mail sender.
type AuthUsecase struct {
	store     CredentialStore
	sender    mailer.Sender
	codes     CodeGenerator
	publisher EventPublisher
	cfg       AuthConfig
	metrics   *metrics.MetricsManager
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthUsecase(
	store CredentialStore,
	sender mailer.Sender,
	codes CodeGenerator,
	publisher EventPublisher,
	cfg AuthConfig,
	m *metrics.MetricsManager,
	logger *zap.Logger,
) *AuthUsecase {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AuthUsecase{
		store:     store,
		sender:    sender,
		codes:     codes,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		logger:    logger.Named("AuthUsecase"),
		now:       time.Now,
	}
}

// StartSignup validates the form, checks uniqueness, stores the draft in the
// session and emails a verification code. The draft never holds the plaintext
// password. If the email cannot be sent the draft is discarded.
func (u *AuthUsecase) StartSignup(ctx context.Context, sess *entity.Session, form validation.SignupForm, doc *validation.DocumentUpload) error {
	form.Email = strings.TrimSpace(form.Email)
	form.NationalID = strings.TrimSpace(form.NationalID)
	if err := validation.ValidateSignup(form, doc); err != nil {
		return err
	}
	name := validation.SanitizeName(form.Name)
	if name == "" {
		return &validation.Error{Field: "Name", Message: "Please fill in all required fields"}
	}

	exists, err := u.store.EmailExists(ctx, form.Email)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrDuplicateEmail
	}
	exists, err = u.store.NationalIDExists(ctx, form.NationalID)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrDuplicateNationalID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), u.cfg.BcryptCost)
	if err != nil {
		u.logger.Error("Failed to hash password during signup", zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}
	code, err := u.codes.SignupCode()
	if err != nil {
		return fmt.Errorf("generate signup code: %w", err)
	}

	now := u.now().UTC()
	sess.Pending = &entity.PendingRegistration{
		Draft: entity.User{
			Name:       name,
			Email:      form.Email,
			NationalID: form.NationalID,
			Password:   string(hash),
			Birthday:   form.Birthday,
			Gender:     form.Gender,
			Document: entity.Document{
				Filename:    doc.Filename,
				ContentType: doc.ContentType,
				Size:        doc.Size,
				Content:     base64.StdEncoding.EncodeToString(doc.Content),
				UploadedAt:  now,
			},
			Role:      entity.RoleUser,
			CreatedAt: now,
		},
		Code:     code,
		Email:    form.Email,
		IssuedAt: now,
	}

	msg := mailer.VerificationMessage(name, code, u.cfg.SignupCodeTTL)
	if err := u.sender.Send(ctx, form.Email, msg.Subject, msg.Body); err != nil {
		sess.Pending = nil
		return err
	}

	u.metrics.ObserveSignup("started")
	u.logger.Info("Signup verification code sent", zap.String("email", form.Email))
	return nil
}

// VerifySignup checks code against the pending registration and, on a match,
// commits the draft to the credential store.
func (u *AuthUsecase) VerifySignup(ctx context.Context, sess *entity.Session, code string) (*entity.User, error) {
	pending := sess.Pending
	if pending == nil {
		return nil, ErrNoPendingRegistration
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &validation.Error{Field: "Code", Message: "Please enter the verification code"}
	}
	if u.now().Sub(pending.IssuedAt) > u.cfg.SignupCodeTTL {
		u.metrics.ObserveCodeVerification("expired")
		return nil, ErrCodeExpired
	}
	if pending.Attempts >= u.cfg.MaxCodeAttempts {
		u.metrics.ObserveCodeVerification("locked")
		return nil, ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(pending.Code)) != 1 {
		pending.Attempts++
		u.metrics.ObserveCodeVerification("invalid")
		u.logger.Warn("Invalid verification code", zap.String("email", pending.Email), zap.Int("attempts", pending.Attempts))
		if pending.Attempts >= u.cfg.MaxCodeAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	user := pending.Draft
	if err := u.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			sess.Pending = nil
		}
		return nil, err
	}
	sess.Pending = nil
	u.metrics.ObserveCodeVerification("success")
	u.metrics.ObserveSignup("verified")

	event := UserRegisteredEvent{
		UserID:       user.ID.Hex(),
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		RegisteredAt: user.CreatedAt,
	}
	if err := u.publisher.PublishUserRegistered(ctx, event); err != nil {
		u.logger.Warn("Failed to publish user registered event", zap.String("userID", event.UserID), zap.Error(err))
	}
	u.logger.Info("User registered", zap.String("userID", event.UserID))
	return &user, nil
}

// ResendCode replaces the pending code with a fresh one and restarts its
// validity window and attempt count.
func (u *AuthUsecase) ResendCode(ctx context.Context, sess *entity.Session) error {
	pending := sess.Pending
	if pending == nil {
		return ErrNoPendingRegistration
	}
	code, err := u.codes.SignupCode()
	if err != nil {
		return fmt.Errorf("generate signup code: %w", err)
	}
	pending.Code = code
	pending.IssuedAt = u.now().UTC()
	pending.Attempts = 0

	msg := mailer.ResendMessage(pending.Draft.Name, code, u.cfg.SignupCodeTTL)
	if err := u.sender.Send(ctx, pending.Email, msg.Subject, msg.Body); err != nil {
		return err
	}
	u.logger.Info("Verification code resent", zap.String("email", pending.Email))
	return nil
}

func (u *AuthUsecase) AbandonSignup(sess *entity.Session) {
	if sess.Pending != nil {
		u.metrics.ObserveSignup("abandoned")
		u.logger.Info("Signup abandoned", zap.String("email", sess.Pending.Email))
	}
	sess.Pending = nil
}

// Authenticate returns the user matching the login form. Unknown accounts and
// wrong passwords are indistinguishable to the caller.
func (u *AuthUsecase) Authenticate(ctx context.Context, form validation.LoginForm) (*entity.User, error) {
	form.Identifier = strings.TrimSpace(form.Identifier)
	if err := validation.ValidateLogin(form); err != nil {
		return nil, err
	}
	user, err := u.store.FindByIdentifier(ctx, form.Identifier, form.ByEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.metrics.ObserveLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		u.metrics.ObserveLogin("error")
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		u.metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	u.metrics.ObserveLogin("success")
	return user, nil
}

// RequestPasswordReset stores a fresh reset token on the account, replacing
// any earlier one, and emails it to the account's address.
func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, sess *entity.Session, form validation.ForgotPasswordForm) error {
	form.Identifier = strings.TrimSpace(form.Identifier)
	if err := validation.ValidateForgotPassword(form); err != nil {
		return err
	}
	user, err := u.store.FindByIdentifier(ctx, form.Identifier, form.ByEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.metrics.ObservePasswordReset("request", "not_registered")
			return &NotRegisteredError{ByEmail: form.ByEmail}
		}
		return err
	}

	token, err := u.codes.ResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expiry := u.now().Add(u.cfg.ResetTokenTTL)
	if err := u.store.SetResetToken(ctx, form.Identifier, form.ByEmail, token, expiry); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &NotRegisteredError{ByEmail: form.ByEmail}
		}
		return err
	}

	msg := mailer.PasswordResetMessage(token, u.cfg.ResetTokenTTL)
	if err := u.sender.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		u.metrics.ObservePasswordReset("request", "send_failed")
		return err
	}

	sess.ResetEmail = user.Email
	u.metrics.ObservePasswordReset("request", "success")
	u.logger.Info("Password reset token sent", zap.String("email", user.Email))
	return nil
}

// ResetPassword consumes the reset token of the account the session asked a
// reset for. The password and the token change in one store write: a failed
// write leaves the token usable, and a token succeeds at most once.
func (u *AuthUsecase) ResetPassword(ctx context.Context, sess *entity.Session, form validation.ResetPasswordForm) error {
	if sess.ResetEmail == "" {
		return ErrNoResetInProgress
	}
	form.Token = strings.TrimSpace(form.Token)
	if err := validation.ValidateResetPassword(form); err != nil {
		return err
	}

	user, err := u.store.FindByIdentifier(ctx, sess.ResetEmail, true)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if user.ResetToken == "" || subtle.ConstantTimeCompare([]byte(form.Token), []byte(user.ResetToken)) != 1 {
		u.metrics.ObservePasswordReset("complete", "invalid_token")
		return ErrInvalidToken
	}
	if user.ResetTokenExpiry == nil || u.now().After(*user.ResetTokenExpiry) {
		u.metrics.ObservePasswordReset("complete", "expired_token")
		return ErrExpiredToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), u.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.store.ConsumeResetToken(ctx, user.Email, form.Token, u.now(), string(hash)); err != nil {
		if errors.Is(err, repository.ErrResetTokenRejected) {
			u.metrics.ObservePasswordReset("complete", "invalid_token")
			return ErrInvalidToken
		}
		return err
	}

	sess.ResetEmail = ""
	u.metrics.ObservePasswordReset("complete", "success")
	if err := u.publisher.PublishPasswordReset(ctx, PasswordResetEvent{Email: user.Email, ResetAt: u.now().UTC()}); err != nil {
		u.logger.Warn("Failed to publish password reset event", zap.String("email", user.Email), zap.Error(err))
	}
	u.logger.Info("Password reset completed", zap.String("email", user.Email))
	return nil
}
