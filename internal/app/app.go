package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/config"
	"github.com/mkovtun/study-tracker/internal/delivery/httpd"
	"github.com/mkovtun/study-tracker/internal/middleware"
	"github.com/mkovtun/study-tracker/internal/repository"
	"github.com/mkovtun/study-tracker/internal/service"
	"github.com/mkovtun/study-tracker/internal/service/integration"
	"github.com/mkovtun/study-tracker/internal/worker"
	"github.com/mkovtun/study-tracker/internal/worker/queue"
	"github.com/mkovtun/study-tracker/pkg/jwt"
)

const streamConsumerTag = "study-tracker-stream"

type App struct {
	server       *http.Server
	logger       zerolog.Logger
	config       *config.Config
	db           *sql.DB
	redisClient  *redis.Client
	publisher    integration.EventPublisher
	consumer     queue.RabbitMQConsumer
	streamWorker *worker.StreamWorker
	workerCancel context.CancelFunc
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	photoStorage, err := repository.NewPhotoStorage(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.UseSSL,
		cfg.Storage.ConnectTimeout,
		log,
	)
	if err != nil {
		return nil, err
	}

	publisher, err := integration.NewRabbitMQClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ client")
		// Task mutations still work without the event bus, live
		// streams just stay silent.
		publisher = nil
	}

	baseRepo := repository.NewPostgresRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	taskRepo := repository.NewTaskRepository(db, log)
	sessions := repository.NewSessionStorage(redisClient)

	tokenManager := jwt.NewTokenManager(
		cfg.Auth.Secret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		cfg.Auth.Issuer,
	)

	authService := service.NewAuthService(userRepo, sessions, tokenManager, cfg.Auth.RefreshTokenTTL, log)
	userService := service.NewUserService(userRepo, photoStorage, cfg.Storage.MaxPhotoSize, log)
	taskService := service.NewTaskService(taskRepo, publisher, log)
	statsService := service.NewStatsService(taskRepo, userRepo, cfg.Notifications, log)
	reportService := service.NewReportService(userRepo, log)

	hub := worker.NewHub()

	var (
		consumer     queue.RabbitMQConsumer
		streamWorker *worker.StreamWorker
	)
	if publisher != nil {
		consumer, err = queue.NewRabbitMQConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName, streamConsumerTag, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create RabbitMQ consumer")
		} else {
			streamWorker = worker.NewStreamWorker(consumer, hub, log)
		}
	}

	handler := httpd.NewHandler(
		authService,
		userService,
		taskService,
		statsService,
		reportService,
		hub,
		baseRepo,
		log,
	)

	authMiddleware := middleware.NewAuth(tokenManager, authService, log)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:       server,
		logger:       log,
		config:       cfg,
		db:           db,
		redisClient:  redisClient,
		publisher:    publisher,
		consumer:     consumer,
		streamWorker: streamWorker,
	}, nil
}

func (a *App) Run() error {
	if a.streamWorker != nil {
		workerCtx, cancel := context.WithCancel(context.Background())
		a.workerCancel = cancel

		go func() {
			if err := a.streamWorker.Run(workerCtx); err != nil {
				a.logger.Error().Err(err).Msg("Stream worker stopped")
			}
		}()
	}

	a.logger.Info().Msgf("Starting study tracker on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down study tracker...")

	if a.workerCancel != nil {
		a.workerCancel()
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ consumer")
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
