package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	"EconPulse/internal/usecase"
	"EconPulse/internal/ws"
	pkgch "EconPulse/pkg/clickhouse"
	"EconPulse/pkg/config"
	xhttp "EconPulse/pkg/http"
	"EconPulse/pkg/http/middleware"
	pkgkafka "EconPulse/pkg/kafka"
	applogger "EconPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	chClient *pkgch.Client
	alerts   domrepo.AlertPublisher
	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
	ingestor *usecase.Ingestor
	runner   *usecase.AnalysisRunner
	handler  xhttp.Handler
	hub      *ws.Hub

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	chClient *pkgch.Client,
	alerts domrepo.AlertPublisher,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	ingestor *usecase.Ingestor,
	runner *usecase.AnalysisRunner,
	handler xhttp.Handler,
	hub *ws.Hub,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		chClient: chClient,
		alerts:   alerts,
		consumer: consumer,
		kh:       kh,
		ingestor: ingestor,
		runner:   runner,
		handler:  handler,
		hub:      hub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if a.cfg.Metrics.Enabled {
		a.httpServer.Echo().Use(echo.WrapMiddleware(middleware.Metrics(l, 500*time.Millisecond)))
	}

	// Dashboard push channel
	if a.hub != nil {
		go a.hub.Run(ctx)
		a.runner.SetNotifier(func(s *models.AnalysisSummary) {
			a.hub.Broadcast("summary", s)
		})
		a.runner.SetEventSink(a.hub.Broadcast)
		a.httpServer.Echo().GET("/ws", echo.WrapHandler(a.hub))
		l.Info("websocket hub started")
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Pipeline schedule: ingest pulls fresh data, the completion event (or
	// the direct call when Kafka is off) triggers analysis.
	if a.cfg.Eurostat.IngestOnStart {
		go a.ingestOnce(ctx, l)
	} else if a.cfg.Analysis.RunOnStart {
		go func() {
			if _, err := a.runner.Run(ctx); err != nil {
				l.Error("startup analysis run failed", applogger.Error(err))
			}
		}()
	}
	if a.cfg.Eurostat.IngestInterval > 0 {
		go a.ingestLoop(ctx, l)
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

func (a *App) ingestOnce(ctx context.Context, l *applogger.Logger) {
	if _, err := a.ingestor.Run(ctx); err != nil {
		l.Error("ingest run failed", applogger.Error(err))
		return
	}
	// Without a consumer no one reacts to the completion event, so run
	// the analysis directly.
	if a.consumer == nil {
		if _, err := a.runner.Run(ctx); err != nil {
			l.Error("analysis run failed", applogger.Error(err))
		}
	}
}

func (a *App) ingestLoop(ctx context.Context, l *applogger.Logger) {
	t := time.NewTicker(a.cfg.Eurostat.IngestInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.ingestOnce(ctx, l)
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.alerts != nil {
		if err := a.alerts.Close(); err != nil {
			l.Warn("alert publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	log.Println("econpulse: stopped")
	return nil
}
