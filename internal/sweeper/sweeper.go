// Package sweeper runs the periodic overdue sweep in the background.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/circulateapp/circulate-server/internal/service"
)

// Sweeper promotes borrowed loans past their expected return date to
// overdue on a fixed interval. One sweep runs at startup so a server
// that was down over a due date catches up immediately.
type Sweeper struct {
	loans    *service.LoanService
	interval time.Duration
	logger   *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a sweeper. It does nothing until Start is called.
func New(loans *service.LoanService, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		loans:    loans,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Safe to call once; subsequent
// calls are no-ops.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.run(ctx)

		s.logger.Info("overdue sweeper started", "interval", s.interval)
	})
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			close(s.done)
			return
		}
		s.cancel()
		<-s.done
		s.logger.Info("overdue sweeper stopped")
	})
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Catch-up sweep on startup.
	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce executes a single sweep pass. Each pass gets a run ID so the
// log lines of one pass can be correlated.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	runID := uuid.NewString()

	count, err := s.loans.Sweep(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", "run_id", runID, "error", err)
		return 0, err
	}

	if count > 0 {
		s.logger.Info("overdue sweep pass finished", "run_id", runID, "transitioned", count)
	}
	return count, nil
}
