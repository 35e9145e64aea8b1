package verification

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const mailSubject = "Your verification code"

// MailSender is the part of gomail.Dialer the notifier uses.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailConfig describes the SMTP relay codes are sent through.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// MailNotifier emails codes to the address a challenge was issued for.
type MailNotifier struct {
	sender MailSender
	from   string
	logger *zap.Logger
}

func NewMailNotifier(cfg MailConfig, logger *zap.Logger) *MailNotifier {
	return newMailNotifier(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From, logger)
}

func newMailNotifier(sender MailSender, from string, logger *zap.Logger) *MailNotifier {
	return &MailNotifier{
		sender: sender,
		from:   from,
		logger: logger.Named("mail_notifier"),
	}
}

// Deliver sends the code. gomail does not take a context, so only a context
// that is already done stops the send.
func (n *MailNotifier) Deliver(ctx context.Context, address, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", mailSubject)
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is %s. It expires shortly; do not share it.", code))

	if err := n.sender.DialAndSend(m); err != nil {
		n.logger.Error("Failed to send verification mail", zap.Error(err))
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
