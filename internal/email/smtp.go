package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"timebank_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendWelcomeEmail greets a freshly registered member.
func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, displayName, communityName string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Welcome to " + communityName,
			Heading: "Welcome aboard",
		},
		DisplayName:   displayName,
		CommunityName: communityName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, "Welcome to "+communityName, content)
}

// SendTransferReceipt mails one side of a completed transfer.
func (s *SMTPSender) SendTransferReceipt(ctx context.Context, toEmail string, receipt TransferReceipt) error {
	heading := "You sent time credits"
	subject := "Receipt: credits sent"
	if receipt.Incoming {
		heading = "You received time credits"
		subject = "Receipt: credits received"
	}

	content, err := renderEmailTemplate("transfer_receipt.html", transferReceiptEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: heading,
		},
		CounterpartyName: receipt.CounterpartyName,
		Amount:           receipt.Amount,
		EntryID:          receipt.EntryID,
		Incoming:         receipt.Incoming,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

var _ Sender = (*SMTPSender)(nil)
