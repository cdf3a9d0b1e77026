package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"shoplane/api/internal/repository"
)

// Scheduler runs the housekeeping sweeps: expired OTPs and anti-forgery
// tokens are deleted, long-inactive revoked sessions pruned. Sessions
// are otherwise never deleted so their activity trail survives.
type Scheduler struct {
	cron     *cron.Cron
	sessions *repository.SessionRepository
	csrf     *repository.CSRFRepository
	otps     *repository.OTPRepository
	log      zerolog.Logger
}

// sessionRetentionDays is how long a revoked or expired session row is
// kept for its activity trail before pruning.
const sessionRetentionDays = 90

func NewScheduler(sessions *repository.SessionRepository, csrf *repository.CSRFRepository, otps *repository.OTPRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		csrf:     csrf,
		otps:     otps,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	// Expired short-lived tokens every 15 minutes.
	if _, err := s.cron.AddFunc("0 */15 * * * *", s.pruneTokens); err != nil {
		return err
	}
	// Dead session rows once a day.
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.pruneSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for any in-flight job, bounded by a short grace period.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) pruneTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if n, err := s.otps.DeleteExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("prune otps failed")
	} else if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("pruned expired otps")
	}

	if n, err := s.csrf.DeleteExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("prune csrf tokens failed")
	} else if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("pruned expired csrf tokens")
	}
}

func (s *Scheduler) pruneSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.sessions.DeleteInactiveBefore(ctx, sessionRetentionDays)
	if err != nil {
		s.log.Error().Err(err).Msg("prune sessions failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("pruned inactive sessions")
	}
}
