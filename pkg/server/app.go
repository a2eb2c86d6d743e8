package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Watchtower/internal/usecase"
	pkgch "Watchtower/pkg/clickhouse"
	"Watchtower/pkg/config"
	xhttp "Watchtower/pkg/http"
	pkgkafka "Watchtower/pkg/kafka"
	applogger "Watchtower/pkg/logger"

	"github.com/labstack/echo/v4"
)

// multiHandler fans route registration out to several handlers.
type multiHandler []xhttp.Handler

func (m multiHandler) RegisterRoutes(e *echo.Echo) {
	for _, h := range m {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	runner   *usecase.CycleRunner
	consumer *pkgkafka.Consumer
	producer *pkgkafka.Producer
	chClient *pkgch.Client

	httpServer   *xhttp.Server
	httpHandlers []xhttp.Handler
	kafkaHandler pkgkafka.MessageHandler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	runner *usecase.CycleRunner,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		runner:   runner,
		consumer: consumer,
		producer: producer,
		chClient: chClient,
	}
}

// SetHTTPHandlers registers route providers for the Echo server.
func (a *App) SetHTTPHandlers(handlers ...xhttp.Handler) { a.httpHandlers = handlers }

// SetKafkaHandler registers the signals topic handler.
func (a *App) SetKafkaHandler(h pkgkafka.MessageHandler) { a.kafkaHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(multiHandler(a.httpHandlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.consumer != nil && a.kafkaHandler != nil {
		a.consumer.RegisterHandler(a.kafkaHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kafkaHandler.Topic()))
	}

	a.runner.Start()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
