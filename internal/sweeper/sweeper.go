// Package sweeper periodically removes expired conversation signals and
// idle in-memory conversations.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

const defaultInterval = 5 * time.Minute

// SignalCleaner deletes stored signals older than a TTL.
type SignalCleaner interface {
	CleanupExpiredSignals(ctx context.Context, ttl time.Duration) (int64, error)
}

// ConversationPruner drops conversations idle for longer than a TTL.
type ConversationPruner interface {
	PruneIdle(now time.Time, ttl time.Duration) int
}

// Config controls the sweep cadence and lifetimes.
type Config struct {
	Interval         time.Duration
	SignalTTL        time.Duration
	ConversationIdle time.Duration
}

// Sweeper runs the periodic cleanup.
type Sweeper struct {
	signals SignalCleaner
	convs   ConversationPruner
	cfg     Config
	logger  *slog.Logger
}

// New creates a Sweeper. Either dependency may be nil.
func New(signals SignalCleaner, convs ConversationPruner, cfg Config, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{signals: signals, convs: convs, cfg: cfg, logger: logger}
}

// Run sweeps every interval until ctx is done. It always returns nil so it
// can sit in an errgroup next to the servers.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	s.logger.Info("Sweeper started", "interval", s.cfg.Interval,
		"signal_ttl", s.cfg.SignalTTL, "conversation_idle", s.cfg.ConversationIdle)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		case <-ctx.Done():
			s.logger.Info("Sweeper shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// Sweep performs one cleanup pass.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) {
	if s.signals != nil && s.cfg.SignalTTL > 0 {
		deleted, err := s.signals.CleanupExpiredSignals(ctx, s.cfg.SignalTTL)
		if err != nil {
			s.logger.Error("Sweeper failed to clean up signals", "error", err)
		} else if deleted > 0 {
			s.logger.Info("Sweeper removed expired signals", "count", deleted)
		}
	}
	if s.convs != nil && s.cfg.ConversationIdle > 0 {
		if n := s.convs.PruneIdle(now, s.cfg.ConversationIdle); n > 0 {
			s.logger.Info("Sweeper pruned idle conversations", "count", n)
		}
	}
}
