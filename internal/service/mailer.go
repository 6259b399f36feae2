package service

import (
	"bitwise74/learning-api/config"
	"bytes"
	"context"
	"errors"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const (
	subjectVerify = "Verify Your Email - Learning Platform"
	subjectReset  = "Reset Your Password - Learning Platform"
)

var (
	ErrMailNotConfigured = errors.New("email delivery is not configured")
	ErrMailDelivery      = errors.New("email delivery failed")
)

// DeliveryError wraps whatever went wrong talking to the SMTP server.
// errors.Is(err, ErrMailDelivery) matches it.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return "email delivery failed, " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrMailDelivery
}

// Notifier sends the transactional emails of the auth flow. Both methods
// always return the link they tried to send, so it can be shown in-band when
// delivery fails.
type Notifier interface {
	SendVerification(ctx context.Context, to, token string) (string, error)
	SendReset(ctx context.Context, to, token string) (string, error)
}

type Mailer struct {
	cfg    config.Mail
	appURL string
	// send is nil when mail isn't configured
	send func(m ...*gomail.Message) error
}

// NewMailer returns a Mailer delivering over SMTP. Port 465 gets implicit
// TLS, anything else upgrades with STARTTLS when the server offers it and
// accepts it, and stays unencrypted otherwise.
func NewMailer(cfg config.Mail, appURL string) *Mailer {
	m := &Mailer{
		cfg:    cfg,
		appURL: appURL,
	}

	if cfg.Configured() {
		m.send = newDialer(cfg).DialAndSend
	}

	return m
}

func (m *Mailer) VerificationLink(token string) string {
	return m.link("verify", token)
}

func (m *Mailer) ResetLink(token string) string {
	return m.link("reset", token)
}

func (m *Mailer) link(param, token string) string {
	sep := "?"
	if strings.Contains(m.appURL, "?") {
		sep = "&"
	}

	return m.appURL + sep + param + "=" + url.QueryEscape(token)
}

func (m *Mailer) SendVerification(ctx context.Context, to, token string) (string, error) {
	link := m.VerificationLink(token)

	return link, m.deliver(ctx, to, subjectVerify, mailBody{
		Heading: "Welcome to the Learning Platform",
		Intro:   "Thanks for signing up. Confirm your email address to start learning.",
		Action:  "Verify Email",
		Link:    link,
	})
}

func (m *Mailer) SendReset(ctx context.Context, to, token string) (string, error) {
	link := m.ResetLink(token)

	return link, m.deliver(ctx, to, subjectReset, mailBody{
		Heading: "Password reset",
		Intro:   "Someone asked to reset the password of your account. The link below is valid for one hour.",
		Action:  "Reset Password",
		Link:    link,
		Outro:   "If this wasn't you, you can ignore this email.",
	})
}

func (m *Mailer) deliver(ctx context.Context, to, subject string, body mailBody) error {
	if m.send == nil {
		zap.L().Warn("Email not configured, showing link instead",
			zap.String("subject", subject),
			zap.String("to", to),
			zap.String("link", body.Link))
		return ErrMailNotConfigured
	}

	if err := ctx.Err(); err != nil {
		return &DeliveryError{Err: err}
	}

	msg, err := m.compose(to, subject, body)
	if err != nil {
		return &DeliveryError{Err: err}
	}

	if err := m.send(msg); err != nil {
		zap.L().Warn("Failed to send email, showing link instead",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("to", to),
			zap.String("link", body.Link))
		return &DeliveryError{Err: err}
	}

	zap.L().Debug("Email sent", zap.String("subject", subject), zap.String("to", to))
	return nil
}

func (m *Mailer) compose(to, subject string, body mailBody) (*gomail.Message, error) {
	html, text, err := body.render()
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender())
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)

	return msg, nil
}

type mailBody struct {
	Heading string
	Intro   string
	Action  string
	Link    string
	Outro   string
}

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 560px; margin: 0 auto; padding: 24px;">
    <h2 style="color: #4a6cf7;">{{.Heading}}</h2>
    <p>{{.Intro}}</p>
    <p style="margin: 32px 0;">
      <a href="{{.Link}}" style="background: #4a6cf7; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">{{.Action}}</a>
    </p>
    <p>If the button doesn't work, copy this link into your browser:</p>
    <p style="word-break: break-all;">{{.Link}}</p>
    {{if .Outro}}<p style="color: #888;">{{.Outro}}</p>{{end}}
  </div>
</body>
</html>
`))

var textTmpl = texttemplate.Must(texttemplate.New("text").Parse(`{{.Heading}}

{{.Intro}}

{{.Action}}: {{.Link}}
{{if .Outro}}
{{.Outro}}
{{end}}`))

func (b mailBody) render() (string, string, error) {
	var html, text bytes.Buffer

	if err := htmlTmpl.Execute(&html, b); err != nil {
		return "", "", err
	}

	if err := textTmpl.Execute(&text, b); err != nil {
		return "", "", err
	}

	return html.String(), text.String(), nil
}
