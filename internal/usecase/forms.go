package usecase

import (
	"fmt"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
)

var loginMethods = []string{MethodEmail, MethodNationalID}

func (o *Orchestrator) form(sess *entity.Session, values map[string]string) Form {
	f := pageForm(sess.Page)
	switch sess.Page {
	case entity.PageVerify:
		if sess.Pending != nil {
			f.Info = fmt.Sprintf("A verification code has been sent to %s", sess.Pending.Email)
		}
	case entity.PageResetPassword:
		if sess.ResetEmail != "" {
			f.Info = fmt.Sprintf("Enter the reset code sent to %s", sess.ResetEmail)
		}
	}
	if len(values) > 0 {
		f.Values = values
	}
	return f
}

func pageForm(page entity.Page) Form {
	switch page {
	case entity.PageSignup:
		return Form{
			Page:  page,
			Title: "Create an Account",
			Fields: []Field{
				{Name: FieldName, Label: "Full Name", Type: "text", Required: true},
				{Name: FieldEmail, Label: "Email", Type: "email", Required: true},
				{Name: FieldNationalID, Label: "National ID Number (12 digits)", Type: "text", Required: true},
				{Name: FieldDocument, Label: "Government ID Document", Type: "file", Required: true},
				{Name: FieldBirthday, Label: "Birthday", Type: "date", Required: true},
				{Name: FieldGender, Label: "Gender", Type: "select", Options: entity.Genders, Required: true},
				{Name: FieldPassword, Label: "Password", Type: "password", Required: true},
				{Name: FieldConfirmPassword, Label: "Confirm Password", Type: "password", Required: true},
			},
			Actions: []Action{
				{Name: "submit", Label: "Sign Up"},
				{Name: "navigate", Label: "Already have an account? Login", Target: entity.PageLogin.String()},
			},
		}
	case entity.PageVerify:
		return Form{
			Page:  page,
			Title: "Verify Your Email",
			Fields: []Field{
				{Name: FieldCode, Label: "Enter Verification Code", Type: "text", Required: true},
			},
			Actions: []Action{
				{Name: "submit", Label: "Verify"},
				{Name: "resend", Label: "Resend Code"},
				{Name: "navigate", Label: "Back to Login", Target: entity.PageLogin.String()},
			},
		}
	case entity.PageForgotPassword:
		return Form{
			Page:  page,
			Title: "Reset Password",
			Fields: []Field{
				{Name: FieldLoginMethod, Label: "Recover with", Type: "radio", Options: loginMethods, Required: true},
				{Name: FieldIdentifier, Label: "Email or National ID Number", Type: "text", Required: true},
			},
			Actions: []Action{
				{Name: "submit", Label: "Send Reset Code"},
				{Name: "navigate", Label: "Back to Login", Target: entity.PageLogin.String()},
			},
		}
	case entity.PageResetPassword:
		return Form{
			Page:  page,
			Title: "Set New Password",
			Fields: []Field{
				{Name: FieldToken, Label: "Reset Code", Type: "text", Required: true},
				{Name: FieldPassword, Label: "New Password", Type: "password", Required: true},
				{Name: FieldConfirmPassword, Label: "Confirm New Password", Type: "password", Required: true},
			},
			Actions: []Action{
				{Name: "submit", Label: "Reset Password"},
				{Name: "navigate", Label: "Back to Login", Target: entity.PageLogin.String()},
			},
		}
	default:
		return Form{
			Page:  entity.PageLogin,
			Title: "Login",
			Fields: []Field{
				{Name: FieldLoginMethod, Label: "Login with", Type: "radio", Options: loginMethods, Required: true},
				{Name: FieldIdentifier, Label: "Email or National ID Number", Type: "text", Required: true},
				{Name: FieldPassword, Label: "Password", Type: "password", Required: true},
			},
			Actions: []Action{
				{Name: "submit", Label: "Login"},
				{Name: "navigate", Label: "Sign Up Instead", Target: entity.PageSignup.String()},
				{Name: "navigate", Label: "Forgot Password?", Target: entity.PageForgotPassword.String()},
			},
		}
	}
}
