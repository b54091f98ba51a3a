package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/auth"
	"github.com/ariefcatur/ferremas-api/internal/branches"
	"github.com/ariefcatur/ferremas-api/internal/checkout"
	"github.com/ariefcatur/ferremas-api/internal/config"
	"github.com/ariefcatur/ferremas-api/internal/contacts"
	"github.com/ariefcatur/ferremas-api/internal/events"
	"github.com/ariefcatur/ferremas-api/internal/httpx"
	kafkax "github.com/ariefcatur/ferremas-api/internal/kafka"
	"github.com/ariefcatur/ferremas-api/internal/logging"
	"github.com/ariefcatur/ferremas-api/internal/orders"
	"github.com/ariefcatur/ferremas-api/internal/postgres"
	"github.com/ariefcatur/ferremas-api/internal/products"
	"github.com/ariefcatur/ferremas-api/internal/redisx"
	"github.com/ariefcatur/ferremas-api/internal/stockrequest"
	"github.com/ariefcatur/ferremas-api/internal/users"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Env, cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)

	// Kafka producers, one per topic
	var producers []*kafkax.Producer
	publisher := func(topic string) events.Publisher {
		if !cfg.KafkaEnabled {
			return events.Nop{}
		}
		p := kafkax.NewProducer(cfg.KafkaBrokers, topic, 1024)
		p.Start(ctx)
		producers = append(producers, p)
		return &events.KafkaPublisher{Producer: p, Service: cfg.ServiceName}
	}
	stockEvents := publisher(events.TopicStockRequests)
	paymentEvents := publisher(events.TopicPayments)

	// Domain
	productCache := products.NewCache(&products.Repo{DB: db}, rdb)
	orderRepo := &orders.Repo{DB: db}
	userRepo := &users.Repo{DB: db}
	stock := stockrequest.NewService(&stockrequest.Repo{DB: db}, stockEvents, productCache)
	sessions := checkout.NewManager(
		orderRepo,
		checkout.NewWebpayClient(cfg.Webpay),
		&checkout.RedisReplayGuard{RDB: rdb},
		paymentEvents,
		cfg.PublicURL+"/api/webpay/return",
	)

	authn := &auth.Authenticator{Users: userRepo, DevToken: cfg.Firebase.DevToken, Dev: cfg.IsDevelopment()}
	accounts := &auth.Accounts{Users: userRepo, ProjectID: cfg.Firebase.ProjectID, DevToken: authn.Dev && authn.DevToken != ""}
	if fb, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase); err != nil {
		log.Warn().Err(err).Msg("firebase unavailable, only the development token is accepted")
	} else {
		authn.Verifier = fb
		accounts.Verifier = fb
		accounts.Admin = fb
	}

	// HTTP
	router := httpx.NewRouter(httpx.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Dev:         cfg.IsDevelopment(),
		Timeout:     60 * time.Second,
	})
	api := &httpx.API{
		Auth:          authn,
		Products:      &httpx.ProductsHandler{Store: productCache},
		Branches:      &httpx.BranchesHandler{Store: &branches.Repo{DB: db}},
		StockRequests: &httpx.StockRequestsHandler{Service: stock},
		Orders:        &httpx.OrdersHandler{Service: &orders.Service{Store: orderRepo}},
		Contacts:      &httpx.ContactsHandler{Store: &contacts.Repo{DB: db}},
		Users:         &httpx.UsersHandler{Store: userRepo},
		Accounts:      &httpx.AccountsHandler{Accounts: accounts, Users: userRepo},
		Checkout:      &httpx.CheckoutHandler{Sessions: sessions, StorefrontURL: cfg.BaseURL},
	}
	api.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"api": func(ctx context.Context) error {
			log.Info().Msg("shutting down")
			err := srv.Shutdown(ctx)
			// producers flush only after the last handler has published
			for _, p := range producers {
				if perr := p.Shutdown(ctx); perr != nil {
					err = errors.Join(err, perr)
				}
			}
			return err
		},
	})
	code := <-wait
	cancel()
	db.Close()
	_ = rdb.Close()
	os.Exit(code)
}
