package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/kafka"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/pubsub"
)

type notifierSet struct {
	Notifier notifications.Notifier
	PubSub   *pubsub.Client
}

// buildNotifier fans notifications out to every configured driver. The
// returned closer flushes and releases driver connections.
func buildNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger) (notifierSet, func(), error) {
	var (
		set     notifierSet
		fanout  notifications.Fanout
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, driver := range cfg.Notifier.DriverList() {
		switch driver {
		case config.NotifierDriverLog:
			fanout = append(fanout, notifications.NewLogNotifier(logg))
		case config.NotifierDriverPubSub:
			client, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
			if err != nil {
				closeAll()
				return notifierSet{}, func() {}, fmt.Errorf("pubsub notifier: %w", err)
			}
			closers = append(closers, func() {
				if err := client.Close(); err != nil {
					logg.Error(context.Background(), "error closing pubsub client", err)
				}
			})
			n, err := notifications.NewPubSubNotifier(client.NotificationPublisher())
			if err != nil {
				closeAll()
				return notifierSet{}, func() {}, err
			}
			set.PubSub = client
			fanout = append(fanout, n)
		case config.NotifierDriverKafka:
			writer, err := kafka.NewClient(cfg.Kafka.BrokerList()).NewWriter(cfg.Kafka.NotificationTopic)
			if err != nil {
				closeAll()
				return notifierSet{}, func() {}, fmt.Errorf("kafka notifier: %w", err)
			}
			closers = append(closers, func() {
				if err := writer.Close(); err != nil {
					logg.Error(context.Background(), "error closing kafka writer", err)
				}
			})
			n, err := notifications.NewKafkaNotifier(writer)
			if err != nil {
				closeAll()
				return notifierSet{}, func() {}, err
			}
			fanout = append(fanout, n)
		default:
			closeAll()
			return notifierSet{}, func() {}, fmt.Errorf("unknown notifier driver %q", driver)
		}
	}

	if len(fanout) == 0 {
		fanout = append(fanout, notifications.NewLogNotifier(logg))
	}
	if len(fanout) == 1 {
		set.Notifier = fanout[0]
	} else {
		set.Notifier = fanout
	}
	return set, closeAll, nil
}
