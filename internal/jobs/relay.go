package jobs

import (
	"context"

	"timebank_backend/internal/events"
	"timebank_backend/platform/logger"
)

// Relay bridges in-process events to queued tasks. It runs in the API
// process; the worker picks the tasks up on the other side of Redis.
type Relay struct {
	client *Client
	log    *logger.Logger
}

func NewRelay(client *Client, log *logger.Logger) *Relay {
	return &Relay{client: client, log: log}
}

// Subscribe registers the relay's handlers on the bus.
func (r *Relay) Subscribe(bus events.Bus) {
	bus.Subscribe(events.MemberSignedUp{}.EventName(), events.HandlerFunc(r.onMemberSignedUp))
}

func (r *Relay) onMemberSignedUp(ctx context.Context, event events.Event) error {
	e, ok := event.(events.MemberSignedUp)
	if !ok {
		return nil
	}
	return r.client.EnqueueWelcomeEmail(ctx, e.TenantID, e.AccountID)
}
