// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically removes expired sessions. Expired sessions are already
// rejected on access; the sweeper only keeps the store from accumulating dead
// rows.
type Sweeper struct {
	sessions SessionRepository
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(deleted int64)
}

// NewSweeper creates a Sweeper. A non-positive interval falls back to
// DefaultSweepInterval.
func NewSweeper(sessions SessionRepository, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("sessions repository is required")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{sessions: sessions, interval: interval, logger: logger}, nil
}

// OnSweep registers a callback invoked with the number of sessions each sweep
// removed. Used to feed metrics. Must be set before Run.
func (s *Sweeper) OnSweep(fn func(deleted int64)) {
	s.onSweep = fn
}

// Run sweeps until the context is canceled. Sweep failures are logged and the
// loop continues; a transient storage error must not kill the process.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.logger.Warn("session sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Debug("swept expired sessions", "deleted", deleted)
	}
	if s.onSweep != nil {
		s.onSweep(deleted)
	}
}
