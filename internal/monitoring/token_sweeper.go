package monitoring

import (
	"github.com/jobsterhq/jobster-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TokenSweeper periodically clears expired password-reset token hashes so
// stale secrets never linger in the credential store.
type TokenSweeper struct {
	userSvc services.UserServiceProvider
	cron    *cron.Cron
}

// NewTokenSweeper creates a sweeper over the user service.
func NewTokenSweeper(userSvc services.UserServiceProvider) *TokenSweeper {
	return &TokenSweeper{
		userSvc: userSvc,
		cron:    cron.New(),
	}
}

// Run starts the sweep schedule. A sweep also fires immediately on start so
// a restart does not extend token lifetimes.
func (ts *TokenSweeper) Run() error {
	log.Info().Msg("Starting reset-token sweeper...")

	if _, err := ts.cron.AddFunc("@every 15m", ts.sweep); err != nil {
		return err
	}
	ts.sweep()
	ts.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for a running sweep to finish.
func (ts *TokenSweeper) Stop() {
	log.Info().Msg("Stopping reset-token sweeper.")
	<-ts.cron.Stop().Done()
}

func (ts *TokenSweeper) sweep() {
	cleared, err := ts.userSvc.ClearExpiredResetTokens()
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to clear expired reset tokens")
		return
	}
	if cleared > 0 {
		log.Info().Int64("cleared", cleared).Msg("Sweeper: cleared expired reset tokens")
	}
}
