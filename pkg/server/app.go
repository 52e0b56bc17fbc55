package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketWire/internal/handler/ws"
	"MarketWire/internal/usecase"
	pkgch "MarketWire/pkg/clickhouse"
	"MarketWire/pkg/config"
	xhttp "MarketWire/pkg/http"
	pkgkafka "MarketWire/pkg/kafka"
	applogger "MarketWire/pkg/logger"
	"MarketWire/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	scanner   *usecase.MarketScanner
	processor *usecase.EventProcessor
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	wsHub     *ws.Hub
	notifyQ   *queue.RedisQueue

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.MarketScanner,
	processor *usecase.EventProcessor,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	wsHub *ws.Hub,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		scanner:   scanner,
		processor: processor,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		wsHub:     wsHub,
	}
}

// SetHTTPHandler allows DI to inject the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetNotifyQueue allows DI to inject the delivery queue consumer.
func (a *App) SetNotifyQueue(q *queue.RedisQueue) { a.notifyQ = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithServerLogger(a.l),
	)
	if a.wsHub != nil {
		a.wsHub.RegisterRoutes(a.httpServer.Echo())
	}

	// Delivery queue consumer before the scanner, so the first scan's
	// notifications have somewhere to go.
	if a.notifyQ != nil {
		if err := a.notifyQ.Start(); err != nil {
			l.Error("notify queue start error", applogger.Error(err))
		} else {
			l.Info("notify queue started")
		}
	}

	// Events consumer for the kafka backend.
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.scanner.Start(ctx); err != nil {
		l.Error("scanner start error", applogger.Error(err))
		return err
	}
	l.Info("scanner started", applogger.Strings("symbols", a.cfg.Yahoo.Symbols))

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown stops services in reverse start order.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	a.scanner.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.wsHub != nil {
		a.wsHub.Close()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.notifyQ != nil {
		if err := a.notifyQ.Stop(shutdownCtx); err != nil {
			l.Warn("notify queue stop error", applogger.Error(err))
		}
	}

	// Close processor resources (Kafka producer).
	if a.processor != nil {
		a.processor.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.RemoveCollector()
	l.Info("shutdown complete")
	return nil
}
