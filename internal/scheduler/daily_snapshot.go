package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DREDGV/crypto-portfolio/internal/portfolio"
)

// DailySnapshotJob records the portfolio's total market value into the
// valuation history once a day. The stats aggregator derives volatility,
// drawdown, win rate and Sharpe from this series.
type DailySnapshotJob struct {
	log       zerolog.Logger
	portfolio *portfolio.Service
}

// NewDailySnapshotJob creates a daily valuation snapshot job
func NewDailySnapshotJob(svc *portfolio.Service, log zerolog.Logger) *DailySnapshotJob {
	return &DailySnapshotJob{
		log:       log.With().Str("job", "daily_snapshot").Logger(),
		portfolio: svc,
	}
}

// Name returns the job name
func (j *DailySnapshotJob) Name() string {
	return "daily_snapshot"
}

// Run values the portfolio and stores today's sample
func (j *DailySnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := j.portfolio.RecordValuationSnapshot(ctx); err != nil {
		return err
	}

	j.log.Info().Msg("Daily valuation snapshot recorded")
	return nil
}
