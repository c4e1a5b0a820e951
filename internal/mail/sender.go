package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/config"
	"github.com/tazhibayda/auth-backend/internal/helper"
	"github.com/tazhibayda/auth-backend/internal/queue"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// New picks a Mailer by cfg.Driver. pub is only used by the "queue" driver.
func New(cfg config.MailConfig, pub queue.Publisher, exchange string, logger *zap.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return &LogSender{Logger: logger}, nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("mail: SMTP_HOST is required for the smtp driver")
		}
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From), nil
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			return nil, fmt.Errorf("mail: MAILGUN_DOMAIN and MAILGUN_API_KEY are required for the mailgun driver")
		}
		return NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase, cfg.From), nil
	case "queue":
		if _, noop := pub.(queue.NoopPub); pub == nil || noop {
			return nil, fmt.Errorf("mail: the queue driver needs a rabbit publisher")
		}
		return &QueueSender{Pub: pub, Exchange: exchange}, nil
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}

// LogSender writes mail to the log instead of delivering it. Development only:
// the body carries live reset links.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.Logger.Info("mail (not delivered)",
		zap.String("to_hash", helper.Hash8(m.To)),
		zap.String("subject", m.Subject),
		zap.String("html", m.HTML),
	)
	return nil
}

type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	from string
}

func NewSMTP(host string, port int, user, password, from string) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		from: from,
	}
	if user != "" {
		s.auth = smtp.PlainAuth("", user, password, host)
		if from == "" {
			s.from = user
		}
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg := buildMIME(s.from, m)
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, s.auth, envelopeAddr(s.from), []string{m.To}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMIME(from string, m Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(m.HTML)
	return []byte(b.String())
}

// envelopeAddr strips a display name: `Support <a@b>` -> `a@b`.
func envelopeAddr(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

type Mailgun struct {
	domain  string
	apiKey  string
	apiBase string
	from    string
}

func NewMailgun(domain, apiKey, apiBase, from string) *Mailgun {
	return &Mailgun{domain: domain, apiKey: apiKey, apiBase: apiBase, from: from}
}

func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	mg := mailgun.NewMailgun(m.domain, m.apiKey)
	if m.apiBase != "" {
		mg.SetAPIBase(m.apiBase)
	}

	message := mailgun.NewMessage(m.from, msg.Subject, "", msg.To)
	message.SetHtml(msg.HTML)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, _, err := mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}

// QueueSender hands mail to the notifier over AMQP.
type QueueSender struct {
	Pub      queue.Publisher
	Exchange string
}

func (s *QueueSender) Send(ctx context.Context, m Message) error {
	job := queue.MailJob{To: m.To, Subject: m.Subject, HTML: m.HTML}
	if err := s.Pub.Publish(ctx, s.Exchange, queue.KeyMailSend, job, ""); err != nil {
		return fmt.Errorf("queue mail: %w", err)
	}
	return nil
}
