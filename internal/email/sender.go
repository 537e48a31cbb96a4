// Package email sends transactional mail for the platform. Delivery is a
// best-effort side effect everywhere it is used: failures are logged by the
// caller and never unwind the operation that triggered them.
package email

import "context"

// TransferReceipt describes a completed transfer from one side's view.
type TransferReceipt struct {
	CounterpartyName string
	Amount           string
	EntryID          string
	// Incoming is true for the receiver's copy of the receipt.
	Incoming bool
}

// Sender delivers transactional email.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, displayName, communityName string) error
	SendTransferReceipt(ctx context.Context, toEmail string, receipt TransferReceipt) error
}

// NoopSender drops all mail. Used when EMAIL_ENABLED is off.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(context.Context, string, string, string) error { return nil }
func (NoopSender) SendTransferReceipt(context.Context, string, TransferReceipt) error {
	return nil
}

var _ Sender = NoopSender{}
