package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/obs/retry"
)

var (
	errNoBrokers   = errors.New("kafka: no brokers configured")
	errNoPartition = errors.New("kafka: topic has no partitions yet")
)

// Open makes sure the notification topic exists and returns a producer for
// it. A failed topic check is only logged because the writer can still
// auto-create the topic on first write.
func Open(ctx context.Context, cfg ProducerConfig, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	if err := EnsureTopic(ctx, cfg, log); err != nil {
		log.Warn("ensure topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return NewProducer(cfg, log)
}

// EnsureTopic creates cfg.Topic through the cluster controller and waits
// until its partitions are visible.
func EnsureTopic(ctx context.Context, cfg ProducerConfig, log *zap.Logger) error {
	if len(cfg.Brokers) == 0 {
		return errNoBrokers
	}
	partitions := max(cfg.Partitions, 1)

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("lookup controller: %w", err)
	}
	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cc.Close()

	if err := cc.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", cfg.Topic, err)
	}

	return retry.Do(ctx, retry.Policy{
		Op:        "kafka.topic_ready",
		Attempts:  25,
		Backoff:   func(int) time.Duration { return 200 * time.Millisecond },
		Retryable: func(err error) bool { return errors.Is(err, errNoPartition) },
		Log:       log,
	}, func(context.Context) error {
		ps, err := conn.ReadPartitions(cfg.Topic)
		if err != nil || len(ps) == 0 {
			return errNoPartition
		}
		log.Info("topic ready", zap.String("topic", cfg.Topic), zap.Int("partitions", len(ps)))
		return nil
	})
}
