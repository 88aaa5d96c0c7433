package dep

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/sugils/Email-tracker-BE/config"
)

type Email struct {
	From        string
	FromName    string
	To          string
	ReplyTo     string
	Subject     string
	TextContent string
	HtmlContent string
}

// EmailSession is a held SMTP connection. One session serves a whole
// campaign batch so the handshake cost is paid once.
type EmailSession interface {
	Send(ctx context.Context, email *Email) error
	Close() error
}

type EmailService interface {
	NewSession(ctx context.Context) (EmailSession, error)
}

type emailService struct {
	dialer *gomail.Dialer
}

func NewEmailService(cfg config.SMTP) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *emailService) NewSession(ctx context.Context) (EmailSession, error) {
	var sc gomail.SendCloser

	op := func() error {
		var err error
		sc, err = s.dialer.Dial()
		if err != nil {
			log.Ctx(ctx).Warn().Msgf("smtp dial failed, err: %v", err)
		}
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("smtp dial: %w", err)
	}

	return &emailSession{sc: sc}, nil
}

type emailSession struct {
	sc gomail.SendCloser
}

func (s *emailSession) Send(ctx context.Context, email *Email) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", email.From, email.FromName)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
		m.SetHeader("List-Unsubscribe", fmt.Sprintf("<mailto:%s?subject=Unsubscribe>", email.ReplyTo))
	}
	m.SetDateHeader("Date", time.Now())

	if email.TextContent != "" {
		m.SetBody("text/plain", email.TextContent)
		m.AddAlternative("text/html", email.HtmlContent)
	} else {
		m.SetBody("text/html", email.HtmlContent)
	}

	return gomail.Send(s.sc, m)
}

func (s *emailSession) Close() error {
	return s.sc.Close()
}
