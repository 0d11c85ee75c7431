package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/config"
)

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer 返回 error 即视为投递失败
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SMTPMailer struct {
	host     string
	opts     []mail.Option
	from     string
	fromName string
}

func NewSMTP(c config.Mail) (*SMTPMailer, error) {
	if c.Host == "" {
		return nil, errors.New("mailer: mail.host is required")
	}
	opts := []mail.Option{
		mail.WithPort(c.Port),
		mail.WithTimeout(15 * time.Second),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if c.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(c.Username),
			mail.WithPassword(c.Password),
		)
	}
	return &SMTPMailer{host: c.Host, opts: opts, from: c.From, fromName: c.FromName}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("mailer: to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.TextBody)
	if m.HTMLBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTMLBody)
	}

	// 每次发送新建连接，client 不跨 goroutine 共享
	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// LogMailer 开发环境用，只打日志不投递
type LogMailer struct {
	Log *zap.Logger
}

func (l LogMailer) Send(_ context.Context, m Message) error {
	l.Log.Info("mail (not delivered)",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.TextBody),
	)
	return nil
}

// FromConfig mail.host 为空时退回 LogMailer
func FromConfig(c config.Mail, l *zap.Logger) (Mailer, error) {
	if c.Host == "" {
		l.Warn("mail.host empty, emails will only be logged")
		return LogMailer{Log: l}, nil
	}
	return NewSMTP(c)
}
