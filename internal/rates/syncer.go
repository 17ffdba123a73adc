package rates

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Fetcher is the part of Client the syncer needs.
type Fetcher interface {
	Latest(ctx context.Context, base string) (core.RateTable, error)
}

// Target holds the live rate table; the store implements it.
type Target interface {
	BaseCurrency() string
	SetRates(core.RateTable)
}

// Syncer copies the table for the current base currency into the target.
// A failed fetch leaves the target untouched.
type Syncer struct {
	fetcher Fetcher
	target  Target
	logger  *log.Logger
}

func NewSyncer(f Fetcher, t Target, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{fetcher: f, target: t, logger: logger.WithComponent(log.ComponentRates)}
}

// Refresh fetches the table for the target's current base currency.
func (s *Syncer) Refresh(ctx context.Context) error {
	base := s.target.BaseCurrency()
	table, err := s.fetcher.Latest(ctx, base)
	if err != nil {
		s.logger.LogError(ctx, "Rate refresh failed, keeping previous rates", err, log.OpRefresh,
			log.NewFields().With(log.FieldBaseCurrency, base))
		return err
	}
	s.target.SetRates(table)
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	_ = s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}
