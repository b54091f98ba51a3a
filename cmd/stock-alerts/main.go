package main

import (
	"context"
	"errors"
	"os"

	"github.com/ariefcatur/ferremas-api/internal/alerts"
	"github.com/ariefcatur/ferremas-api/internal/config"
	"github.com/ariefcatur/ferremas-api/internal/events"
	kafkax "github.com/ariefcatur/ferremas-api/internal/kafka"
	"github.com/ariefcatur/ferremas-api/internal/logging"
	"github.com/ariefcatur/ferremas-api/internal/redisx"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	service := cfg.ServiceName + "-stock-alerts"
	logging.Setup(cfg.LogLevel, cfg.Env, service)
	if !cfg.KafkaEnabled {
		log.Fatal().Msg("stock alerts need kafka; set KAFKA_ENABLED=true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)

	lowStock := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicLowStock, 256)
	lowStock.Start(ctx)

	svc := &alerts.Service{
		Redis:  rdb,
		Events: &events.KafkaPublisher{Producer: lowStock, Service: service},
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.Alerts.Group, events.TopicStockRequests, cfg.Alerts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("group", cfg.Alerts.Group).Str("topic", events.TopicStockRequests).
			Int("workers", cfg.Alerts.Workers).Msg("stock alerts consumer started")
		return cons.Start(gctx, svc.HandleStockRequestEvent)
	})
	go func() {
		if err := g.Wait(); err != nil {
			log.Fatal().Err(err).Msg("consumer exited")
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"consumer": func(sctx context.Context) error {
			log.Info().Msg("shutting down consumer")
			cancel()
			err := g.Wait()
			// handlers are done publishing
			return errors.Join(err, lowStock.Shutdown(sctx))
		},
	})
	code := <-wait
	_ = rdb.Close()
	os.Exit(code)
}
