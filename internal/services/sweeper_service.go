package services

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweeperService runs the scheduled booking sweeps: expiring pending
// bookings whose hold lapsed and completing confirmed bookings whose stay
// has ended. Both sweeps are single guarded UPDATEs, safe to run alongside
// request handling.
type SweeperService struct {
	cron     *cron.Cron
	bookings BookingStore
	clock    Clock
	schedule string
	logger   *logrus.Logger
}

// NewSweeperService creates a new SweeperService
func NewSweeperService(bookings BookingStore, clock Clock, schedule string, logger *logrus.Logger) *SweeperService {
	return &SweeperService{
		cron:     cron.New(cron.WithSeconds()),
		bookings: bookings,
		clock:    clock,
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the sweeps and starts the scheduler
func (s *SweeperService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule booking sweep: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("booking sweeper started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *SweeperService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("booking sweeper stopped")
}

// Sweep runs both sweeps once. Exposed so operators can trigger it manually.
func (s *SweeperService) Sweep() {
	now := s.clock.Now()

	expired, err := s.bookings.ExpirePendingUnpaid(now)
	if err != nil {
		s.logger.WithError(err).Error("failed to expire pending bookings")
	} else if expired > 0 {
		s.logger.WithField("count", expired).Info("expired pending bookings")
	}

	completed, err := s.bookings.CompletePastStays(now)
	if err != nil {
		s.logger.WithError(err).Error("failed to complete past stays")
	} else if completed > 0 {
		s.logger.WithField("count", completed).Info("completed past stays")
	}
}
