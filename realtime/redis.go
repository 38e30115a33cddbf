package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/sirupsen/logrus"
)

const channelPrefix = "realtime:"

// RedisBroker fans notifications out across processes through Redis pub/sub.
// Every Subscription owns its own Redis subscription.
type RedisBroker struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func NewRedisBroker(redisURL string, log logrus.FieldLogger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// maint_notifications is not available on Redis 7
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBroker{client: client, log: log}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, collection string) error {
	if err := b.client.Publish(ctx, channelPrefix+collection, "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channelPrefix+collection)
	// Receive blocks until Redis confirms the subscription.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", collection, err)
	}

	sub := newSubscription(collection, func() {
		if err := pubsub.Close(); err != nil {
			b.log.WithError(err).WithField("collection", collection).Warn("closing redis subscription")
		}
	})
	subscriptionsOpen.Inc()

	go func() {
		messages := pubsub.Channel()
		for {
			select {
			case <-sub.done:
				return
			case _, ok := <-messages:
				if !ok {
					// Dropped channel: no further refreshes until the view is recreated.
					sub.Close()
					return
				}
				sub.signal()
			}
		}
	}()

	return sub, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
