package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DREDGV/crypto-portfolio/internal/portfolio"
)

// PriceRefreshJob keeps quotes for all held coins warm in the resolver
// cache so interactive position queries rarely wait on providers.
type PriceRefreshJob struct {
	log       zerolog.Logger
	portfolio *portfolio.Service
	timeout   time.Duration
}

// NewPriceRefreshJob creates a price refresh job
func NewPriceRefreshJob(svc *portfolio.Service, timeout time.Duration, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		log:       log.With().Str("job", "price_refresh").Logger(),
		portfolio: svc,
		timeout:   timeout,
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run resolves quotes for every held coin
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	coins, err := j.portfolio.HeldCoins()
	if err != nil {
		return err
	}
	if len(coins) == 0 {
		return nil
	}

	for _, coin := range coins {
		j.portfolio.GetQuote(ctx, coin)
	}

	j.log.Debug().Int("coins", len(coins)).Msg("Price refresh completed")
	return nil
}
