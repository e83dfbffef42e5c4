package notification

import "context"

// Publisher hands notifications to the delivery pipeline.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}
