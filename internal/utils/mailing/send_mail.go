package mailing

import (
	"context"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/utils"
	"strconv"

	"gopkg.in/gomail.v2"
)

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfig("SMTP_PORT"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c MailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPEmail != ""
}

func BuildMessage(cfg MailConfig, toEmail string, subject string, body string) *gomail.Message {
	mailer := gomail.NewMessage()
	if cfg.SMTPSender != "" {
		mailer.SetAddressHeader("From", cfg.SMTPEmail, cfg.SMTPSender)
	} else {
		mailer.SetHeader("From", cfg.SMTPEmail)
	}
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)
	return mailer
}

func SendMail(cfg MailConfig, toEmail string, subject string, body string) error {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		return err
	}
	dialer := gomail.NewDialer(
		cfg.SMTPHost,
		port,
		cfg.SMTPEmail,
		cfg.SMTPPassword,
	)
	return dialer.DialAndSend(BuildMessage(cfg, toEmail, subject, body))
}

// DecisionNotifier emails submitters when a moderator decides on their item.
type DecisionNotifier struct {
	cfg  MailConfig
	send func(cfg MailConfig, toEmail string, subject string, body string) error
}

func NewDecisionNotifier(cfg MailConfig) *DecisionNotifier {
	return &DecisionNotifier{cfg: cfg, send: SendMail}
}

func (n *DecisionNotifier) NotifyDecision(_ context.Context, sub domain.PendingSubmission) error {
	if sub.OwnerEmail == "" || !n.cfg.Enabled() {
		return nil
	}
	subject, body := DecisionMessage(sub, n.cfg.AppURL)
	return n.send(n.cfg, sub.OwnerEmail, subject, body)
}

// DecisionMessage renders the subject and html body for a decided submission.
func DecisionMessage(sub domain.PendingSubmission, appURL string) (string, string) {
	switch sub.Status() {
	case domain.StatusApproved:
		return fmt.Sprintf("%q is now in the catalog", sub.Item.Name),
			fmt.Sprintf("<p>Your food <b>%s</b> was approved and is now visible to everyone.</p><p><a href=\"%s\">Open the catalog</a></p>",
				sub.Item.Name, appURL)
	default:
		reason := sub.RejectionReason
		if reason == "" {
			reason = "no reason given"
		}
		return fmt.Sprintf("%q was not accepted", sub.Item.Name),
			fmt.Sprintf("<p>Your food <b>%s</b> was not accepted: %s.</p><p>It stays in your own list.</p>",
				sub.Item.Name, reason)
	}
}
