package mailer

import (
	"fmt"
	"time"
)

const productName = "Disaster Relief Dashboard"

type Message struct {
	Subject string
	Body    string
}

func VerificationMessage(name, code string, validity time.Duration) Message {
	return Message{
		Subject: productName + " - Verify Your Account",
		Body: fmt.Sprintf(`Hello %s,

Thank you for registering with the %s.
Your verification code is: %s

This code will expire in %s.

Best regards,
%s Team
`, name, productName, code, humanDuration(validity), productName),
	}
}

func ResendMessage(name, code string, validity time.Duration) Message {
	return Message{
		Subject: productName + " - Your New Verification Code",
		Body: fmt.Sprintf(`Hello %s,

Your new verification code is: %s

This code will expire in %s.

Best regards,
%s Team
`, name, code, humanDuration(validity), productName),
	}
}

func PasswordResetMessage(token string, validity time.Duration) Message {
	return Message{
		Subject: productName + " - Reset Your Password",
		Body: fmt.Sprintf(`Hello,

You requested a password reset for your %s account.
Your password reset code is: %s

This code will expire in %s.

If you did not request this reset, please ignore this email.

Best regards,
%s Team
`, productName, token, humanDuration(validity), productName),
	}
}

// humanDuration renders 30m as "30 minutes" and 1h as "1 hour".
func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	if d >= time.Minute && d%time.Minute == 0 {
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
