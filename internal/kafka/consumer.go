package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
	commit  func(ctx context.Context, msgs ...kafka.Message) error
	// newBackOff paces retries of a failing message; nil means exponential up to 30s.
	newBackOff func() backoff.BackOff
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, commit: r.CommitMessages}
}

// Start fetches messages and fans them out to the worker pool until ctx is cancelled.
// A partition always maps to the same worker, so its offsets are committed in order.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if !c.process(ctx, id, h, m) {
					return
				}
			}
		}(i, queues[i])
	}
	defer wg.Wait()
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case queues[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// process runs h until it succeeds, then commits the offset. It reports false when ctx
// ended first; the offset stays uncommitted and the message is redelivered.
func (c *Consumer) process(ctx context.Context, id int, h Handler, m kafka.Message) bool {
	attempt := 0
	op := func() error {
		attempt++
		err := h(ctx, m)
		if err != nil {
			log.Error().Err(err).Int("worker", id).Str("topic", m.Topic).Int("partition", m.Partition).
				Int64("offset", m.Offset).Int("attempt", attempt).Msg("handler failed, retrying")
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(c.backOff(), ctx)); err != nil {
		return false
	}
	if err := c.commit(ctx, m); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Int("worker", id).Msg("commit failed")
	}
	return ctx.Err() == nil
}

func (c *Consumer) backOff() backoff.BackOff {
	if c.newBackOff != nil {
		return c.newBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}
