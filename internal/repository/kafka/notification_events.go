package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/domain/notification"
	"github.com/NordCoder/Credgate/internal/obs/retry"
)

var _ notification.Publisher = (*NotificationEvents)(nil)

// NotificationEvents publishes notifications keyed by user id so one user's
// notifications stay ordered within a partition.
type NotificationEvents struct {
	p      *Producer
	policy retry.Policy
}

func NewNotificationEvents(p *Producer, log *zap.Logger) *NotificationEvents {
	return &NotificationEvents{p: p, policy: retry.Publish(log)}
}

func (e *NotificationEvents) Publish(ctx context.Context, n notification.Notification) error {
	return retry.Do(ctx, e.policy, func(ctx context.Context) error {
		return e.p.PublishJSON(ctx, []byte(n.UserID), n)
	})
}
