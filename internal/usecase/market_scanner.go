package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"MarketWire/internal/domain/models"
	drepo "MarketWire/internal/domain/repository"
	mid "MarketWire/internal/middleware"
	"MarketWire/internal/services/detect"
	"MarketWire/pkg/cache"
	applogger "MarketWire/pkg/logger"
)

const (
	scanLockKey = "scan:lock"
	scanLockTTL = 2 * time.Minute
)

// MarketScanner periodically fetches quotes for the watched symbols,
// runs detection over the whole batch, and feeds events through the
// pipeline. Bars go to the store on every scan when one is configured.
type MarketScanner struct {
	quotes   drepo.QuoteSource
	detector *detect.Detector
	pipe     *mid.EventPipeline
	store    drepo.BarStore
	metrics  drepo.Metrics
	l        *applogger.Logger

	symbols  []string
	schedule string
	locker   cache.Service

	cron    *cron.Cron
	mu      sync.Mutex
	running bool

	// latest snapshot per symbol, for the HTTP layer
	snapMu    sync.RWMutex
	lastSnaps map[string]models.MarketSnapshot
}

// ScannerOption configures optional scanner behavior.
type ScannerOption func(*MarketScanner)

// WithScanLock guards each scan with a shared lock so only one replica
// scans at a time when the cache is backed by Redis.
func WithScanLock(locker cache.Service) ScannerOption {
	return func(s *MarketScanner) { s.locker = locker }
}

func NewMarketScanner(
	quotes drepo.QuoteSource,
	detector *detect.Detector,
	pipe *mid.EventPipeline,
	store drepo.BarStore,
	metrics drepo.Metrics,
	l *applogger.Logger,
	symbols []string,
	schedule string,
	opts ...ScannerOption,
) *MarketScanner {
	if schedule == "" {
		schedule = "0 */5 * * * *" // every 5 minutes
	}
	s := &MarketScanner{
		quotes:    quotes,
		detector:  detector,
		pipe:      pipe,
		store:     store,
		metrics:   metrics,
		l:         l,
		symbols:   symbols,
		schedule:  schedule,
		lastSnaps: make(map[string]models.MarketSnapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules periodic scans and runs one immediately so a fresh
// deployment does not wait a full interval for its first events.
func (s *MarketScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.cron = cron.New(cron.WithSeconds())
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Scan(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.running = true

	if s.pipe != nil {
		s.pipe.Start(ctx)
	}

	go s.Scan(ctx)

	if s.l != nil {
		s.l.Info("market scanner started",
			applogger.String("schedule", s.schedule),
			applogger.Int("symbols", len(s.symbols)),
		)
	}
	return nil
}

// Stop halts the cron loop and the pipeline flusher.
func (s *MarketScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	if s.pipe != nil {
		s.pipe.Stop()
	}
}

// Scan fetches every watched symbol, persists bars, and routes the
// detected events. Failed fetches are skipped so one flaky symbol does
// not starve the rest.
func (s *MarketScanner) Scan(ctx context.Context) {
	if s.locker != nil {
		held, err := s.locker.TryLock(ctx, scanLockKey, scanLockTTL)
		if err == nil && !held {
			if s.l != nil {
				s.l.Info("scan skipped, lock held elsewhere")
			}
			return
		}
		if err == nil {
			defer func() { _ = s.locker.Unlock(ctx, scanLockKey) }()
		}
		// a lock error means the cache is down; scan anyway
	}

	start := time.Now()
	snapshots := make(map[string]models.MarketSnapshot, len(s.symbols))
	var allBars []models.Bar

	for _, sym := range s.symbols {
		snap, bars, err := s.quotes.Fetch(ctx, sym)
		if err != nil {
			if s.l != nil {
				s.l.Warn("quote fetch failed",
					applogger.String("symbol", sym),
					applogger.Error(err),
				)
			}
			s.metrics.RecordError("scan_fetch")
			continue
		}
		snapshots[sym] = *snap
		allBars = append(allBars, bars...)
	}

	if len(snapshots) == 0 {
		if s.l != nil {
			s.l.Warn("scan produced no snapshots")
		}
		return
	}

	s.snapMu.Lock()
	for sym, snap := range snapshots {
		s.lastSnaps[sym] = snap
	}
	s.snapMu.Unlock()

	if s.store != nil && len(allBars) > 0 {
		if err := s.store.StoreBatch(ctx, allBars); err != nil {
			if s.l != nil {
				s.l.Error("bar store failed", applogger.Error(err))
			}
			s.metrics.RecordError("scan_store")
		}
	}

	events := s.detector.Detect(snapshots)
	for i := range events {
		s.metrics.RecordEventDetected(string(events[i].Type), string(events[i].Severity))
		if err := s.pipe.Process(ctx, &events[i]); err != nil && s.l != nil {
			s.l.Error("event dispatch failed",
				applogger.String("symbol", events[i].Symbol),
				applogger.Error(err),
			)
		}
	}

	s.metrics.RecordLatency("scan", time.Since(start).Seconds())
	if s.l != nil {
		s.l.Info("scan complete",
			applogger.Int("symbols", len(snapshots)),
			applogger.Int("events", len(events)),
			applogger.Duration("took", time.Since(start)),
		)
	}
}

// Snapshot returns the most recent snapshot for symbol, if any scan
// has produced one.
func (s *MarketScanner) Snapshot(symbol string) (models.MarketSnapshot, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	snap, ok := s.lastSnaps[symbol]
	return snap, ok
}
