package bookings

import (
	"context"
	"fmt"

	"boxoffice/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically cancels expired in-progress bookings and returns
// their seats to the pool.
type Sweeper struct {
	scheduler *cron.Cron
	service   Service
	log       *logger.Logger
}

func NewSweeper(service Service, spec string, log *logger.Logger) (*Sweeper, error) {
	if log == nil {
		log = logger.GetDefault()
	}

	s := &Sweeper{
		scheduler: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		service: service,
		log:     log,
	}

	if _, err := s.scheduler.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.scheduler.Start()
	s.log.Info("booking expiry sweeper started")
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	s.log.Info("booking expiry sweeper stopped")
}

func (s *Sweeper) sweep() {
	expired, err := s.service.ExpireStale(context.Background())
	if err != nil {
		s.log.Error("booking expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.log.Info("expired stale bookings", "count", expired)
	}
}
