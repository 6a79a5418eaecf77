package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/dto"
	availabilityapp "villabay/internal/app/handlers/availability"
	bookingapp "villabay/internal/app/handlers/booking"
	reviewapp "villabay/internal/app/handlers/reviews"
	"villabay/internal/app/middleware"
	appoutbox "villabay/internal/app/outbox"
	"villabay/internal/app/policies"
	"villabay/internal/app/queries"
	"villabay/internal/app/schedule"
	"villabay/internal/app/uow"
	"villabay/internal/infra/broker/kafka"
	"villabay/internal/infra/config"
	"villabay/internal/infra/db/mongo"
	ginserver "villabay/internal/infra/http/gin"
	"villabay/internal/infra/obs"
	infraoutbox "villabay/internal/infra/outbox"
	"villabay/internal/infra/settlement"
	"villabay/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	go func() {
		if err := app.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("completion sweeper stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	sweeper      *schedule.Sweeper
	outboxWorker *infraoutbox.Worker
	ready        func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory  uow.Factory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		worker      *infraoutbox.Worker
		ready       = func() error { return nil }
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		uowFactory = mongo.NewFactory(client.DB)
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		idStore = mongo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("no kafka brokers configured, outbox events will accumulate")
		}
	default:
		uowFactory = memory.NewFactory()
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	}

	var settlementPort policies.SettlementPort
	if cfg.SettlementMode == "http" {
		settlementPort = settlement.NewHTTPAdapter(cfg.SettlementURL, cfg.SettlementTimeout)
	} else {
		settlementPort = settlement.NewMemoryAdapter()
	}

	locks := coordinator.NewVillaLocks()
	fees := policies.FeePolicy{ServiceFeePercent: cfg.ServiceFeePercent, TaxPercent: cfg.TaxPercent}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.Register[bookingapp.CreateBookingCommand, *dto.Booking](commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Fees:       fees,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[bookingapp.ApproveBookingCommand, *dto.Booking](commandBus, bookingapp.ApproveBookingCommand{}.Key(), &bookingapp.ApproveBookingHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[bookingapp.RejectBookingCommand, *dto.Booking](commandBus, bookingapp.RejectBookingCommand{}.Key(), &bookingapp.RejectBookingHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[bookingapp.CancelBookingCommand, *dto.Booking](commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Settlement: settlementPort,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[bookingapp.PayBookingCommand, *dto.Booking](commandBus, bookingapp.PayBookingCommand{}.Key(), &bookingapp.PayBookingHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Settlement: settlementPort,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[bookingapp.ReconcilePaymentCommand, *dto.Booking](commandBus, bookingapp.ReconcilePaymentCommand{}.Key(), &bookingapp.ReconcilePaymentHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Settlement: settlementPort,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[bookingapp.CompleteDueBookingsCommand, int](commandBus, bookingapp.CompleteDueBookingsCommand{}.Key(), &bookingapp.CompleteDueBookingsHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[availabilityapp.SetAvailabilityCommand, struct{}](commandBus, availabilityapp.SetAvailabilityCommand{}.Key(), &availabilityapp.SetAvailabilityHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Logger:     logger,
	})
	commands.Register[availabilityapp.AddPricingRuleCommand, string](commandBus, availabilityapp.AddPricingRuleCommand{}.Key(), &availabilityapp.AddPricingRuleHandler{
		UoWFactory: uowFactory,
		Locks:      locks,
		Logger:     logger,
	})
	commands.Register[reviewapp.RecordReviewCommand, *dto.Review](commandBus, reviewapp.RecordReviewCommand{}.Key(), &reviewapp.RecordReviewHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.Register[availabilityapp.QuoteStayQuery, *dto.Quote](queryBus, availabilityapp.QuoteStayQuery{}.Key(), &availabilityapp.QuoteStayHandler{
		UoWFactory: uowFactory,
		Fees:       fees,
	})
	queries.Register[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.Register[reviewapp.ReviewEligibilityQuery, dto.Eligibility](queryBus, reviewapp.ReviewEligibilityQuery{}.Key(), &reviewapp.ReviewEligibilityHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.Chain(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)

	handlers := ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBus,
		},
		Availability: ginserver.AvailabilityHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBus,
			Currency: cfg.Currency,
		},
		Review: ginserver.ReviewHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBus,
		},
	}

	sweeper := &schedule.Sweeper{
		Commands: commandBusWithMiddleware,
		Interval: cfg.SweepInterval,
		Logger:   logger,
	}

	return application{
		handlers:     handlers,
		sweeper:      sweeper,
		outboxWorker: worker,
		ready:        ready,
	}, nil
}
