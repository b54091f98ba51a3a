package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Producer buffers messages in memory and writes them from a single goroutine.
// Publish never blocks a request: when the buffer is full the message is dropped and logged.
type Producer struct {
	w       *kafka.Writer
	topic   string
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion: func(msgs []kafka.Message, err error) {
				if err != nil {
					log.Error().Err(err).Str("topic", topic).Int("messages", len(msgs)).Msg("kafka write failed")
				}
			},
		},
		topic:   topic,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the writer loop until Close is called. The loop drains the inbox before exiting.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				log.Error().Err(err).Str("topic", p.topic).Msg("kafka enqueue failed")
			}
		}
		if err := p.w.Close(); err != nil {
			log.Warn().Err(err).Str("topic", p.topic).Msg("kafka writer close")
		}
	}()
	go func() {
		<-ctx.Done()
		p.Close()
	}()
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		log.Warn().Str("topic", p.topic).Msg("publish after close dropped")
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
	default:
		log.Warn().Str("topic", p.topic).Msg("producer buffer full, message dropped")
	}
}

// Close stops accepting messages; the loop flushes what is buffered and exits. Safe to call twice.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the loop has flushed and closed the writer.
func (p *Producer) WaitClosed() { <-p.closeCh }

// Shutdown closes the producer and waits for the flush, bounded by ctx.
func (p *Producer) Shutdown(ctx context.Context) error {
	p.Close()
	select {
	case <-p.closeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
