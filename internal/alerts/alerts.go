// Package alerts watches approved stock requests and raises a low-stock event when the
// central warehouse drops under a product's minimum.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/ferremas-api/internal/events"
	kafkax "github.com/ariefcatur/ferremas-api/internal/kafka"
	"github.com/ariefcatur/ferremas-api/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"
)

const dedupScope = "stock-alerts"

type Service struct {
	Redis  redis.Cmdable
	Events events.Publisher
}

// HandleStockRequestEvent is installed as the consumer handler for the stock request topic.
// Events other than approvals are acknowledged and skipped.
func (s *Service) HandleStockRequestEvent(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Error().Err(err).Int64("offset", m.Offset).Msg("undecodable envelope skipped")
		return nil
	}
	if env.EventType != events.StockRequestApproved {
		return nil
	}

	p, err := kafkax.UnwrapPayload[events.StockRequestApprovedPayload](env.Payload)
	if err != nil {
		log.Error().Err(err).Str("event_id", env.EventID).Msg("approval payload skipped")
		return nil
	}

	first, err := redisx.MarkOnce(ctx, s.Redis, fmt.Sprintf(redisx.KeyDedup, dedupScope, env.EventID), "1", redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		log.Debug().Str("event_id", env.EventID).Msg("duplicate approval ignored")
		return nil
	}

	if p.WarehouseStock >= p.MinimumStock {
		return nil
	}
	log.Warn().
		Int64("product_id", p.ProductID).
		Int("warehouse_stock", p.WarehouseStock).
		Int("minimum_stock", p.MinimumStock).
		Str("trace_id", env.TraceID).
		Msg("warehouse stock below minimum")
	s.Events.Publish(ctx, events.LowStockDetected, p.ProductID, events.LowStockPayload{
		ProductID:      p.ProductID,
		WarehouseStock: p.WarehouseStock,
		MinimumStock:   p.MinimumStock,
		RequestID:      p.RequestID,
	})
	return nil
}
