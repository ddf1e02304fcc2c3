package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/mailer"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/session"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

var tracer = otel.Tracer("relief-auth/orchestrator")

// Input field names read from the host.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldNationalID      = "national_id"
	FieldBirthday        = "birthday"
	FieldGender          = "gender"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldCode            = "code"
	FieldIdentifier      = "identifier"
	FieldLoginMethod     = "login_method"
	FieldToken           = "token"
	FieldDocument        = "document"

	MethodEmail      = "email"
	MethodNationalID = "national_id"
)

type FlashKind string

const (
	FlashInfo    FlashKind = "info"
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
	FlashError   FlashKind = "error"
)

// Host is the rendering side of the auth flow. The orchestrator only talks to
// the outside world through it.
type Host interface {
	Input(field string) string
	File(field string) *validation.DocumentUpload
	RenderForm(form Form)
	Navigate(page entity.Page)
	Flash(kind FlashKind, text string)
}

type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

type Action struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Target string `json:"target,omitempty"`
}

type Form struct {
	Page    entity.Page       `json:"page"`
	Title   string            `json:"title"`
	Info    string            `json:"info,omitempty"`
	Fields  []Field           `json:"fields"`
	Actions []Action          `json:"actions"`
	Values  map[string]string `json:"values,omitempty"`
}

var transitions = map[entity.Page][]entity.Page{
	entity.PageLogin:          {entity.PageSignup, entity.PageForgotPassword},
	entity.PageSignup:         {entity.PageLogin},
	entity.PageVerify:         {entity.PageLogin},
	entity.PageForgotPassword: {entity.PageLogin},
	entity.PageResetPassword:  {entity.PageLogin},
}

// CanNavigate reports whether an explicit navigation from one page to another
// is allowed.
func CanNavigate(from, to entity.Page) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Orchestrator drives the five auth pages. Every entry point runs the idle
// check before anything is rendered.
type Orchestrator struct {
	auth     *AuthUsecase
	sessions SessionManager
	logger   *zap.Logger
}

func NewOrchestrator(auth *AuthUsecase, sessions SessionManager, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		auth:     auth,
		sessions: sessions,
		logger:   logger.Named("AuthOrchestrator"),
	}
}

// Render shows the form of the current page. An authenticated session gets
// no form, only a notice.
func (o *Orchestrator) Render(ctx context.Context, host Host, sess *entity.Session) error {
	_, span := tracer.Start(ctx, "Orchestrator.Render", oteltrace.WithAttributes(
		attribute.String("page", sess.Page.String()),
	))
	defer span.End()

	if err := o.touch(host, sess); err != nil {
		return endSpan(span, err)
	}
	if sess.Authenticated() {
		host.Flash(FlashInfo, fmt.Sprintf("Logged in as %s", sess.Principal.Name))
		return nil
	}
	host.RenderForm(o.form(sess, nil))
	return nil
}

// Submit handles the form of the current page.
func (o *Orchestrator) Submit(ctx context.Context, host Host, sess *entity.Session) error {
	ctx, span := tracer.Start(ctx, "Orchestrator.Submit", oteltrace.WithAttributes(
		attribute.String("page", sess.Page.String()),
	))
	defer span.End()

	if err := o.touch(host, sess); err != nil {
		return endSpan(span, err)
	}

	var err error
	switch sess.Page {
	case entity.PageLogin:
		err = o.submitLogin(ctx, host, sess)
	case entity.PageSignup:
		err = o.submitSignup(ctx, host, sess)
	case entity.PageVerify:
		err = o.submitVerify(ctx, host, sess)
	case entity.PageForgotPassword:
		err = o.submitForgotPassword(ctx, host, sess)
	case entity.PageResetPassword:
		err = o.submitResetPassword(ctx, host, sess)
	default:
		err = ErrInvalidTransition
		o.fail(host, sess, err, nil)
	}
	return endSpan(span, err)
}

// Navigate follows an explicit navigation button. Leaving the verify page
// abandons the pending registration; leaving the reset page drops the reset
// email.
func (o *Orchestrator) Navigate(ctx context.Context, host Host, sess *entity.Session, target entity.Page) error {
	_, span := tracer.Start(ctx, "Orchestrator.Navigate", oteltrace.WithAttributes(
		attribute.String("from", sess.Page.String()),
		attribute.String("to", target.String()),
	))
	defer span.End()

	if err := o.touch(host, sess); err != nil {
		return endSpan(span, err)
	}
	if !CanNavigate(sess.Page, target) {
		o.logger.Warn("Rejected page transition",
			zap.String("sessionID", sess.ID),
			zap.Stringer("from", sess.Page),
			zap.Stringer("to", target))
		o.fail(host, sess, ErrInvalidTransition, nil)
		return endSpan(span, ErrInvalidTransition)
	}

	switch sess.Page {
	case entity.PageVerify:
		o.auth.AbandonSignup(sess)
	case entity.PageResetPassword:
		sess.ResetEmail = ""
	}
	o.goTo(host, sess, target)
	return nil
}

// Resend issues a new signup code from the verify page.
func (o *Orchestrator) Resend(ctx context.Context, host Host, sess *entity.Session) error {
	ctx, span := tracer.Start(ctx, "Orchestrator.Resend")
	defer span.End()

	if err := o.touch(host, sess); err != nil {
		return endSpan(span, err)
	}
	if sess.Page != entity.PageVerify {
		o.fail(host, sess, ErrInvalidTransition, nil)
		return endSpan(span, ErrInvalidTransition)
	}
	if err := o.auth.ResendCode(ctx, sess); err != nil {
		o.fail(host, sess, err, nil)
		return endSpan(span, err)
	}
	host.Flash(FlashSuccess, "New verification code sent!")
	host.RenderForm(o.form(sess, nil))
	return nil
}

// Logout destroys the session and shows the login page.
func (o *Orchestrator) Logout(ctx context.Context, host Host, sess *entity.Session) error {
	ctx, span := tracer.Start(ctx, "Orchestrator.Logout")
	defer span.End()

	if err := o.sessions.Logout(ctx, sess); err != nil {
		o.logger.Error("Failed to log out", zap.String("sessionID", sess.ID), zap.Error(err))
		host.Flash(FlashError, UserMessage(err))
		return endSpan(span, err)
	}
	host.Flash(FlashSuccess, "You have been logged out.")
	o.goTo(host, sess, entity.PageLogin)
	return nil
}

func (o *Orchestrator) submitLogin(ctx context.Context, host Host, sess *entity.Session) error {
	form := validation.LoginForm{
		Identifier: host.Input(FieldIdentifier),
		Password:   host.Input(FieldPassword),
		ByEmail:    host.Input(FieldLoginMethod) != MethodNationalID,
	}
	user, err := o.auth.Authenticate(ctx, form)
	if err != nil {
		o.fail(host, sess, err, retained(host, FieldIdentifier, FieldLoginMethod))
		return err
	}
	o.sessions.Login(sess, user)
	host.Flash(FlashSuccess, "Login successful!")
	return nil
}

func (o *Orchestrator) submitSignup(ctx context.Context, host Host, sess *entity.Session) error {
	form := validation.SignupForm{
		Name:            host.Input(FieldName),
		Email:           host.Input(FieldEmail),
		NationalID:      host.Input(FieldNationalID),
		Birthday:        host.Input(FieldBirthday),
		Gender:          host.Input(FieldGender),
		Password:        host.Input(FieldPassword),
		ConfirmPassword: host.Input(FieldConfirmPassword),
	}
	if err := o.auth.StartSignup(ctx, sess, form, host.File(FieldDocument)); err != nil {
		o.fail(host, sess, err, retained(host, FieldName, FieldEmail, FieldNationalID, FieldBirthday, FieldGender))
		return err
	}
	host.Flash(FlashSuccess, "Please check your email for the verification code.")
	o.goTo(host, sess, entity.PageVerify)
	return nil
}

func (o *Orchestrator) submitVerify(ctx context.Context, host Host, sess *entity.Session) error {
	if _, err := o.auth.VerifySignup(ctx, sess, host.Input(FieldCode)); err != nil {
		if errors.Is(err, ErrNoPendingRegistration) || errors.Is(err, repository.ErrConflict) {
			o.failTo(host, sess, err, entity.PageSignup)
			return err
		}
		o.fail(host, sess, err, nil)
		return err
	}
	host.Flash(FlashSuccess, "Account verified and registration completed successfully!")
	o.goTo(host, sess, entity.PageLogin)
	return nil
}

func (o *Orchestrator) submitForgotPassword(ctx context.Context, host Host, sess *entity.Session) error {
	form := validation.ForgotPasswordForm{
		Identifier: host.Input(FieldIdentifier),
		ByEmail:    host.Input(FieldLoginMethod) != MethodNationalID,
	}
	if err := o.auth.RequestPasswordReset(ctx, sess, form); err != nil {
		o.fail(host, sess, err, retained(host, FieldIdentifier, FieldLoginMethod))
		return err
	}
	host.Flash(FlashSuccess, "Password reset code sent to your email!")
	o.goTo(host, sess, entity.PageResetPassword)
	return nil
}

func (o *Orchestrator) submitResetPassword(ctx context.Context, host Host, sess *entity.Session) error {
	form := validation.ResetPasswordForm{
		Token:           host.Input(FieldToken),
		Password:        host.Input(FieldPassword),
		ConfirmPassword: host.Input(FieldConfirmPassword),
	}
	if err := o.auth.ResetPassword(ctx, sess, form); err != nil {
		if errors.Is(err, ErrNoResetInProgress) {
			o.failTo(host, sess, err, entity.PageForgotPassword)
			return err
		}
		o.fail(host, sess, err, nil)
		return err
	}
	host.Flash(FlashSuccess, "Password reset successful")
	o.goTo(host, sess, entity.PageLogin)
	return nil
}

// touch runs the idle check. On expiry the session has already been reset to
// the login page, which is rendered with the expiry notice.
func (o *Orchestrator) touch(host Host, sess *entity.Session) error {
	err := o.sessions.Touch(sess)
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrSessionExpired) {
		host.Flash(FlashWarning, session.ExpiredMessage)
		host.Navigate(entity.PageLogin)
		host.RenderForm(o.form(sess, nil))
	}
	return err
}

func (o *Orchestrator) goTo(host Host, sess *entity.Session, page entity.Page) {
	sess.Page = page
	host.Navigate(page)
	host.RenderForm(o.form(sess, nil))
}

func (o *Orchestrator) fail(host Host, sess *entity.Session, err error, values map[string]string) {
	o.logFailure(sess, err)
	host.Flash(FlashError, UserMessage(err))
	host.RenderForm(o.form(sess, values))
}

func (o *Orchestrator) failTo(host Host, sess *entity.Session, err error, page entity.Page) {
	o.logFailure(sess, err)
	host.Flash(FlashError, UserMessage(err))
	o.goTo(host, sess, page)
}

func (o *Orchestrator) logFailure(sess *entity.Session, err error) {
	if errors.Is(err, repository.ErrStoreUnavailable) || errors.Is(err, mailer.ErrSend) {
		o.logger.Error("Auth operation failed", zap.String("sessionID", sess.ID), zap.Stringer("page", sess.Page), zap.Error(err))
		return
	}
	o.logger.Debug("Auth operation rejected", zap.String("sessionID", sess.ID), zap.Stringer("page", sess.Page), zap.Error(err))
}

func retained(host Host, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if v := host.Input(f); v != "" {
			values[f] = v
		}
	}
	return values
}

func endSpan(span oteltrace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}

// UserMessage turns an auth error into the text shown to the user.
func UserMessage(err error) string {
	var vErr *validation.Error
	var notRegistered *NotRegisteredError
	switch {
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.As(err, &notRegistered):
		return notRegistered.Error()
	case errors.Is(err, session.ErrSessionExpired):
		return session.ExpiredMessage
	case errors.Is(err, repository.ErrDuplicateEmail):
		return "Email already registered"
	case errors.Is(err, repository.ErrDuplicateNationalID):
		return "National ID number already registered"
	case errors.Is(err, repository.ErrConflict):
		return "An account with these details already exists"
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "Service temporarily unavailable. Please try again later."
	case errors.Is(err, mailer.ErrSend):
		return "Failed to send email. Please try again later."
	case errors.Is(err, ErrInvalidCode):
		return "Invalid verification code. Please try again."
	case errors.Is(err, ErrCodeExpired):
		return "Verification code has expired. Please request a new code."
	case errors.Is(err, ErrTooManyAttempts):
		return "Too many invalid attempts. Please request a new code."
	case errors.Is(err, ErrInvalidToken):
		return "Invalid reset token"
	case errors.Is(err, ErrExpiredToken):
		return "Reset token expired"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrNoPendingRegistration):
		return "User data not found. Please try signing up again."
	case errors.Is(err, ErrNoResetInProgress):
		return "No password reset in progress. Please request a new reset code."
	case errors.Is(err, ErrInvalidTransition):
		return "This action is not available on the current page"
	default:
		return "Something went wrong. Please try again."
	}
}
