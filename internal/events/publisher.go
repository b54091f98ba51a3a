package events

import (
	"context"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/ferremas-api/internal/kafka"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher announces domain changes. Publishing is best-effort and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType string, aggregateID int64, payload any)
}

// KafkaPublisher wraps payloads in an Envelope and hands them to an async producer.
type KafkaPublisher struct {
	Producer *kafkax.Producer
	Service  string
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, aggregateID int64, payload any) {
	p.Producer.Publish(PartitionKey(aggregateID), Encode(ctx, p.Service, eventType, aggregateID, payload),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// Encode builds the v1 envelope. The request id from chi, when present, becomes the trace id.
func Encode(ctx context.Context, producer, eventType string, aggregateID int64, payload any) []byte {
	return kafkax.MustMarshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: strconv.FormatInt(aggregateID, 10),
		Payload:       kafkax.MustMarshal(payload),
	})
}

// Nop drops events; used when Kafka is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, string, int64, any) {}
