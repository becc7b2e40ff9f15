// Package worker holds background deliveries that run beside the HTTP API.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"school/config"
	"school/internal/delivery"
	deliverycontext "school/internal/delivery/context"
	"school/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// SweeperParams holds dependencies for the session sweeper, injected by Fx.
type SweeperParams struct {
	fx.In

	Lc        fx.Lifecycle
	Cfg       *config.Config
	Logger    *slog.Logger
	SessionUC usecase.SessionUsecase
}

// sessionSweeper deletes expired refresh sessions on a fixed interval. Expired sessions are
// already rejected when read, so it only reclaims storage.
type sessionSweeper struct {
	interval  time.Duration
	sessionUC usecase.SessionUsecase
	logger    *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSessionSweeper creates the sweeper delivery. A zero interval yields a delivery that returns at once.
func NewSessionSweeper(params SweeperParams) delivery.Delivery {
	s := newSessionSweeper(params.Cfg.Database.SessionPurgeInterval, params.SessionUC, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: s.shutdown,
	})

	return s
}

func newSessionSweeper(interval time.Duration, sessionUC usecase.SessionUsecase, logger *slog.Logger) *sessionSweeper {
	return &sessionSweeper{
		interval:  interval,
		sessionUC: sessionUC,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Serve blocks until ctx is cancelled or the sweeper is stopped.
func (s *sessionSweeper) Serve(ctx context.Context) error {
	defer close(s.done)

	if s.interval <= 0 {
		s.logger.Info("Session sweeper disabled")

		return nil
	}

	s.logger.Info("Starting session sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sessionSweeper) sweep(ctx context.Context) {
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("request_id", runID))
	ctx = deliverycontext.WithLogger(deliverycontext.WithRequestID(ctx, runID), logger)

	purged, err := s.sessionUC.PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Warn("Session sweep failed", slog.Any("error", err))

		return
	}
	if purged > 0 {
		logger.Info("Expired sessions purged", slog.Int64("count", purged))
	}
}

func (s *sessionSweeper) shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	select {
	case <-s.done:
	case <-ctx.Done():
	}

	return nil
}
