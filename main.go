// Package main reservation API.
//
// @title           Rental Reservation API
// @version         1.0
// @description     Reservation orchestrator for the rental marketplace (bookings, owner decisions, cancellations).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentalbooking/app/echoServer"
	reservationctrl "rentalbooking/app/echoServer/controller/reservation"
	"rentalbooking/app/echoServer/validation"
	"rentalbooking/config"
	"rentalbooking/model"
	"rentalbooking/repository/broker"
	"rentalbooking/repository/identity"
	"rentalbooking/repository/listing"
	ntfrepo "rentalbooking/repository/notification"
	"rentalbooking/repository/outbox"
	reservationrepo "rentalbooking/repository/reservation"
	notifysvc "rentalbooking/service/notification"
	reservationsvc "rentalbooking/service/reservation"
	"rentalbooking/util/database"
	"rentalbooking/util/httpx"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: pgxpool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Error("db migrate failed", "err", err)
			os.Exit(1)
		}
	}

	hc := httpx.Client()

	// repos
	rr := reservationrepo.New(db.Pool)
	or := outbox.New(db.Pool)
	lr := listing.NewHTTP(cfg.ListingServiceURL, hc)
	dr := ntfrepo.NewHTTP(cfg.NotificationServiceURL, hc, log)

	remote := identity.NewHTTP(cfg.AuthVerifyURL, cfg.AuthUserURL, cfg.IdentityServiceToken, hc)
	var verifier identity.Verifier = remote
	if cfg.IdentityMode == "local" {
		verifier = identity.NewJWT(cfg.JWTSecret)
		log.Info("identity: verifying tokens locally")
	}

	var directory identity.Directory = remote
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		directory = identity.NewCachedDirectory(remote, rdb, cfg.ProfileCacheTTL, log)
	}

	// services
	rs := reservationsvc.New(db, rr, or, verifier, lr, log, cfg.DependencyTimeout)
	notifier := notifysvc.NewNotifier(dr, directory, lr, log, cfg.DependencyTimeout)

	// events: outbox -> broker -> notifier, or outbox -> notifier without a broker
	var pub notifysvc.Publisher = notifier
	if cfg.RabbitMQURL != "" {
		mq := broker.NewClient(broker.NewConfig(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.RabbitMQQueue), log)
		if err := mq.Connect(); err != nil {
			log.Error("rabbitmq connect failed", "err", err)
			os.Exit(1)
		}
		defer mq.Close()

		keys := []string{
			broker.RoutingKey(string(model.EventReservationCreated)),
			broker.RoutingKey(string(model.EventReservationConfirmed)),
			broker.RoutingKey(string(model.EventReservationRejected)),
			broker.RoutingKey(string(model.EventReservationCancelled)),
			broker.RoutingKey(string(model.EventReservationDeleted)),
		}
		if err := broker.NewConsumer(mq, log).Consume(ctx, keys, notifier.Handle); err != nil {
			log.Error("rabbitmq consume failed", "err", err)
			os.Exit(1)
		}
		pub = broker.NewPublisher(mq)
	} else {
		log.Info("RABBITMQ_URL not set, delivering events in-process")
	}

	go notifysvc.NewRelay(or, pub, log, notifysvc.RelayOptions{
		Interval:    cfg.OutboxInterval,
		Batch:       cfg.OutboxBatch,
		MaxAttempts: cfg.OutboxMaxAttempts,
		Lease:       cfg.OutboxLease,
	}).Start(ctx)
	go purgeOutbox(ctx, notifysvc.NewCleaner(or, cfg.OutboxRetention), log)

	// controllers
	reservationC := &reservationctrl.Controller{Svc: rs, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, log)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		pctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":  "degraded",
				"message": "database unreachable",
			})
		}
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Reservation: reservationC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(sctx)
	}()

	if err := e.Start(":" + port); err != nil && ctx.Err() == nil {
		e.Logger.Fatal(err)
	}
}

// purgeOutbox drops delivered events once an hour.
func purgeOutbox(ctx context.Context, c notifysvc.Cleaner, log *slog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.PurgeDelivered(ctx)
			if err != nil {
				log.Error("outbox purge", "err", err)
				continue
			}
			if n > 0 {
				log.Info("outbox purged", "rows", n)
			}
		}
	}
}
