package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

type WelcomeData struct {
	SiteName  string
	FirstName string
	URL       string
}

type PasswordResetData struct {
	SiteName  string
	FirstName string
	ResetURL  string
	ExpiresIn string // "10 minutes"
}

func BuildWelcome(to string, d WelcomeData) Message {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\nWelcome to %s, we're glad to have you.\n", d.FirstName, d.SiteName)
	fmt.Fprintf(&text, "Start exploring tours: %s\n", d.URL)
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Welcome to %s!", d.SiteName),
		TextBody: text.String(),
		HTMLBody: render(welcomeTmpl, d),
	}
}

func BuildPasswordReset(to string, d PasswordResetData) Message {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\nForgot your password? Submit a PATCH request with your new password and passwordConfirm to:\n", d.FirstName)
	text.WriteString(d.ResetURL + "\n\n")
	fmt.Fprintf(&text, "This link is valid for %s.\n", d.ExpiresIn)
	text.WriteString("If you didn't forget your password, please ignore this email.\n")
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Your %s password reset token (valid for %s)", d.SiteName, d.ExpiresIn),
		TextBody: text.String(),
		HTMLBody: render(resetTmpl, d),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #374151;">
  <h1 style="color: #28b487;">Welcome to {{.SiteName}}, {{.FirstName}}!</h1>
  <p>We're glad to have you on board.</p>
  <p><a href="{{.URL}}" style="padding: 10px 24px; background-color: #28b487; color: #ffffff; text-decoration: none; border-radius: 4px;">Explore tours</a></p>
</body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #374151;">
  <p>Hi {{.FirstName}},</p>
  <p>Forgot your password? Use the link below to choose a new one.</p>
  <p><a href="{{.ResetURL}}" style="padding: 10px 24px; background-color: #28b487; color: #ffffff; text-decoration: none; border-radius: 4px;">Reset password</a></p>
  <p style="font-size: 13px; color: #9ca3af;">This link is valid for {{.ExpiresIn}}. If you didn't forget your password, please ignore this email.</p>
</body>
</html>`))
