package usecase

import (
	"context"
	"sync"
	"time"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
	applogger "MarketWire/pkg/logger"
	"MarketWire/pkg/queue"
)

// NotifyJobType is the queue message type for outbound notifications.
const NotifyJobType = "news.notify"

// Broadcaster pushes published bundles to live subscribers.
type Broadcaster interface {
	Broadcast(b *models.NewsBundle)
}

// SnapshotProvider exposes the most recent snapshot per symbol.
type SnapshotProvider interface {
	Snapshot(symbol string) (models.MarketSnapshot, bool)
}

// Newsroom turns a detected event into a published bundle: draft the
// article, review it, attach ad recommendations, then fan the result
// out to the feed and the notification queue.
type Newsroom struct {
	writer    domsvc.ArticleWriter
	fallback  domsvc.ArticleWriter
	reviewer  domsvc.ArticleReviewer
	ads       domsvc.AdRecommender
	snaps     SnapshotProvider
	broadcast Broadcaster
	notify    queue.QueueService
	l         *applogger.Logger

	mu      sync.RWMutex
	recent  []models.NewsBundle
	maxKeep int
}

type NewsroomOption func(*Newsroom)

// WithHistorySize sets how many published bundles are kept in memory.
func WithHistorySize(n int) NewsroomOption {
	return func(nr *Newsroom) {
		if n > 0 {
			nr.maxKeep = n
		}
	}
}

// WithSnapshotProvider wires the latest-snapshot lookup used to give
// writers full market context.
func WithSnapshotProvider(p SnapshotProvider) NewsroomOption {
	return func(nr *Newsroom) { nr.snaps = p }
}

// SetSnapshotProvider wires the snapshot lookup after construction.
// The scanner depends on the newsroom through the processor, so this
// side of the link is attached last.
func (nr *Newsroom) SetSnapshotProvider(p SnapshotProvider) { nr.snaps = p }

// WithBroadcaster wires the live feed.
func WithBroadcaster(b Broadcaster) NewsroomOption {
	return func(nr *Newsroom) { nr.broadcast = b }
}

// WithNotifyQueue wires the delivery queue.
func WithNotifyQueue(q queue.QueueService) NewsroomOption {
	return func(nr *Newsroom) { nr.notify = q }
}

func NewNewsroom(
	writer domsvc.ArticleWriter,
	fallback domsvc.ArticleWriter,
	reviewer domsvc.ArticleReviewer,
	ads domsvc.AdRecommender,
	l *applogger.Logger,
	opts ...NewsroomOption,
) *Newsroom {
	nr := &Newsroom{
		writer:   writer,
		fallback: fallback,
		reviewer: reviewer,
		ads:      ads,
		l:        l,
		maxKeep:  100,
	}
	for _, opt := range opts {
		opt(nr)
	}
	return nr
}

var _ EventHandler = (*Newsroom)(nil)

// HandleEvent publishes one event end to end. Writer failures fall
// back to the template writer, so publication never depends on an
// external model being reachable.
func (nr *Newsroom) HandleEvent(ctx context.Context, e *models.Event) error {
	var snap *models.MarketSnapshot
	if nr.snaps != nil {
		if s, ok := nr.snaps.Snapshot(e.Symbol); ok {
			snap = &s
		}
	}

	article, err := nr.writer.Write(ctx, *e, snap)
	if err != nil {
		if nr.l != nil {
			nr.l.Warn("primary writer failed, using template",
				applogger.String("symbol", e.Symbol),
				applogger.Error(err),
			)
		}
		article, err = nr.fallback.Write(ctx, *e, snap)
		if err != nil {
			return err
		}
	}

	review := nr.reviewer.Review(article, *e)
	if review.Status == models.ReviewNeedsRevision && article.WrittenBy != models.WriterTemplate {
		// A rejected model draft is replaced by the deterministic
		// template rather than published as-is.
		if tmpl, terr := nr.fallback.Write(ctx, *e, snap); terr == nil {
			article = tmpl
			review = nr.reviewer.Review(article, *e)
		}
	}

	ads := nr.ads.Recommend(article, *e)

	bundle := models.NewsBundle{
		Event:       *e,
		Article:     article,
		Review:      review,
		Ads:         ads,
		PublishedAt: time.Now().UTC(),
	}

	nr.mu.Lock()
	nr.recent = append(nr.recent, bundle)
	if len(nr.recent) > nr.maxKeep {
		nr.recent = nr.recent[len(nr.recent)-nr.maxKeep:]
	}
	nr.mu.Unlock()

	if nr.broadcast != nil {
		nr.broadcast.Broadcast(&bundle)
	}

	if nr.notify != nil {
		if qerr := nr.notify.PublishMessage(ctx, NotifyJobType, bundle); qerr != nil && nr.l != nil {
			nr.l.Error("notify enqueue failed",
				applogger.String("symbol", e.Symbol),
				applogger.Error(qerr),
			)
		}
	}

	if nr.l != nil {
		nr.l.Info("bundle published",
			applogger.String("symbol", e.Symbol),
			applogger.String("type", string(e.Type)),
			applogger.String("severity", string(e.Severity)),
			applogger.String("review", string(review.Status)),
			applogger.Int("ads", len(ads)),
		)
	}
	return nil
}

// Recent returns up to limit most recent bundles, newest first.
func (nr *Newsroom) Recent(limit int) []models.NewsBundle {
	nr.mu.RLock()
	defer nr.mu.RUnlock()
	if limit <= 0 || limit > len(nr.recent) {
		limit = len(nr.recent)
	}
	out := make([]models.NewsBundle, 0, limit)
	for i := len(nr.recent) - 1; i >= len(nr.recent)-limit; i-- {
		out = append(out, nr.recent[i])
	}
	return out
}
