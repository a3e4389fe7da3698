package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/libraworks/library-api/pkg/breaker"
)

const mailSubject = "Due book loan"

type SMTPConfig struct {
	Host     string `yaml:"host" envconfig:"SMTP_HOST" default:"localhost"`
	Port     string `yaml:"port" envconfig:"SMTP_PORT" default:"25"`
	From     string `yaml:"from" envconfig:"SMTP_FROM" default:"library@localhost"`
	User     string `yaml:"user" envconfig:"SMTP_USER"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD"`
}

// Mailer sends plain-text mail over SMTP. Deliveries go through a circuit
// breaker so a dead relay fails fast instead of hanging every notice.
type Mailer struct {
	cfg SMTPConfig
	cb  breaker.Breaker
	log *zap.Logger
}

func NewMailer(cfg SMTPConfig, log *zap.Logger) *Mailer {
	const (
		cbWindow    = 10
		cbCooldown  = time.Minute
		cbThreshold = 0.5
		cbRecovery  = 2
	)
	return &Mailer{
		cfg: cfg,
		cb:  breaker.New(cbWindow, cbCooldown, cbThreshold, cbRecovery),
		log: log.Named("mailer"),
	}
}

func (m *Mailer) Send(_ context.Context, message string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, strings.Join(recipients, ", "), mailSubject, message)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.cb.Call(func() error {
		return smtp.SendMail(addr, auth, m.cfg.From, recipients, []byte(body))
	}); err != nil {
		return err
	}
	m.log.Debug("mail sent", zap.Int("recipients", len(recipients)))
	return nil
}
