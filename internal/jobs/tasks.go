// Package jobs provides the asynq task definitions, the enqueueing client
// and the background worker that processes them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskTransferReceipt mails both sides of a completed transfer.
const TaskTransferReceipt = "wallet.transfer.receipt"

// TaskWelcomeEmail greets a freshly registered member.
const TaskWelcomeEmail = "auth.welcome.email"

// TransferReceiptPayload identifies a committed ledger entry. The worker
// reloads everything else, so a stale queue entry can never contradict the
// ledger.
type TransferReceiptPayload struct {
	TenantID   string `json:"tenantId"`
	EntryID    string `json:"entryId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Amount     string `json:"amount"`
}

// WelcomeEmailPayload identifies a freshly registered member.
type WelcomeEmailPayload struct {
	TenantID  string `json:"tenantId"`
	AccountID string `json:"accountId"`
}

func NewTransferReceiptTask(payload TransferReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransferReceipt, data), nil
}

func ParseTransferReceiptPayload(task *asynq.Task) (TransferReceiptPayload, error) {
	var payload TransferReceiptPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TransferReceiptPayload{}, err
	}
	return payload, nil
}

func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcomeEmail, data), nil
}

func ParseWelcomeEmailPayload(task *asynq.Task) (WelcomeEmailPayload, error) {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WelcomeEmailPayload{}, err
	}
	return payload, nil
}
