package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_webhooks_total",
		Help: "Verified webhook events by event type",
	}, []string{"event"})
	mPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_published_total",
		Help: "Notifications handed to the delivery pipeline",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_errors_total",
		Help: "Notifications that could not be published",
	})
)
