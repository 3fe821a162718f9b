package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/YardBox/config"
	"github.com/BearBump/YardBox/internal/broker/kafka"
	"github.com/BearBump/YardBox/internal/broker/messages"
	"github.com/BearBump/YardBox/internal/services/dwell"
	"github.com/BearBump/YardBox/internal/storage"
)

const (
	defaultHistoryTopic  = "yard.history"
	defaultConsumerGroup = "yard-worker"
)

type historyConsumer interface {
	ConsumeHistory(ctx context.Context, handler func(ctx context.Context, m messages.HistoryRecorded) error) error
	Close() error
}

type workerFactories struct {
	newStorage func(ctx context.Context, cfg *config.Config) (storage.Store, error)
	// newConsumer returns nil when no broker is configured.
	newConsumer func(cfg *config.Config) historyConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: storage.Open,
		newConsumer: func(cfg *config.Config) historyConsumer {
			if !cfg.Kafka.Enabled() {
				return nil
			}
			return kafka.NewConsumer(cfg.Kafka.Brokers(), historyTopic(cfg), consumerGroup(cfg))
		},
	}
}

func historyTopic(cfg *config.Config) string {
	if cfg.Kafka.HistoryTopicName != "" {
		return cfg.Kafka.HistoryTopicName
	}
	return defaultHistoryTopic
}

func consumerGroup(cfg *config.Config) string {
	if cfg.YardBox.KafkaConsumerGroup != "" {
		return cfg.YardBox.KafkaConsumerGroup
	}
	return defaultConsumerGroup
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// RunYardWorker runs the dwell scheduler, the history consumer feeding it and,
// when httpOpts is set, the ops HTTP server. It returns when ctx is done or
// one of them fails.
func RunYardWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts *workerHTTPOpts) error {
	loc, err := loadLocation(cfg.YardBox.Timezone)
	if err != nil {
		return err
	}

	st, err := f.newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	calc := dwell.NewCalculator(st, st, st, loc).WithRetention(cfg.YardBox.DwellRetentionDays)
	sched := dwell.NewScheduler(calc, cfg.YardBox.DwellSchedule)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)

	if consumer := f.newConsumer(cfg); consumer != nil {
		defer func() { _ = consumer.Close() }()
		go func() {
			slog.Info("kafka consumer started", "topic", historyTopic(cfg), "group", consumerGroup(cfg))
			err := consumer.ConsumeHistory(ctx, func(_ context.Context, m messages.HistoryRecorded) error {
				if m.AffectsDwell() {
					slog.Debug("dwell recalculation requested", "action", m.Action, "trailer", m.TrailerID)
					sched.Trigger()
				}
				return nil
			})
			if err != nil && ctx.Err() == nil {
				errCh <- err
			}
		}()
	}

	if httpOpts != nil {
		opts := *httpOpts
		opts.scheduler = sched
		opts.cfg = cfg
		opts.ready = func(ctx context.Context) error {
			_, err := st.Load(ctx)
			return err
		}
		go func() {
			if err := runWorkerHTTPServer(ctx, opts); err != nil && ctx.Err() == nil {
				errCh <- err
			}
		}()
	}

	go func() {
		errCh <- sched.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
