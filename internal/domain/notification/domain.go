package notification

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventTransactionCreated   EventType = "transaction.created"
	EventTransactionCompleted EventType = "transaction.completed"
	EventTransactionFailed    EventType = "transaction.failed"
)

type Type string

const (
	TypeInfo        Type = "info"
	TypeTransaction Type = "transaction"
	TypeSuccess     Type = "success"
	TypeError       Type = "error"
	TypeSecurity    Type = "security"
)

// WebhookEvent is the body a trusted peer posts to the webhook endpoint.
type WebhookEvent struct {
	Event EventType       `json:"event"`
	Data  TransactionData `json:"data"`
}

type TransactionData struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Status    string    `json:"status"`
	Event     EventType `json:"event,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromEvent builds the user-facing notification for a webhook event. ok is
// false for event types nobody is notified about.
func FromEvent(ev WebhookEvent, id string, now time.Time) (n Notification, ok bool) {
	n = Notification{
		ID:        id,
		UserID:    ev.Data.UserID,
		Status:    "queued",
		Event:     ev.Event,
		CreatedAt: now,
	}
	switch ev.Event {
	case EventTransactionCreated:
		n.Type = TypeTransaction
		n.Message = fmt.Sprintf("Transaction %s for %v %s has been created and is being processed.",
			ev.Data.ID, ev.Data.Amount, ev.Data.Currency)
	case EventTransactionCompleted:
		n.Type = TypeSuccess
		n.Message = fmt.Sprintf("Transaction %s completed successfully!", ev.Data.ID)
	case EventTransactionFailed:
		n.Type = TypeError
		n.Message = fmt.Sprintf("Transaction %s failed: %s", ev.Data.ID, ev.Data.FailureReason)
	default:
		return Notification{}, false
	}
	return n, true
}
