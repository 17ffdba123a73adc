package labels

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/log"
)

// Source yields label records.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// Service keeps the current catalog. A failed refresh keeps the previous
// one; before the first success the catalog is empty and every lookup
// resolves to the defaults.
type Service struct {
	source Source
	logger *log.Logger

	mu      sync.RWMutex
	catalog Catalog
	loaded  time.Time
}

func NewService(source Source, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		source:  source,
		logger:  logger.WithComponent(log.ComponentLabels),
		catalog: Assemble(nil),
	}
}

// Refresh replaces the catalog with freshly fetched records.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.LogError(ctx, "Label refresh failed, keeping previous labels", err, log.OpRefresh, nil)
		return err
	}
	catalog := Assemble(records)

	s.mu.Lock()
	s.catalog = catalog
	s.loaded = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Labels refreshed", log.FieldCount, len(records))
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
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

// Catalog returns the current catalog. Callers must not modify it.
func (s *Service) Catalog() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// LoadedAt is the time of the last successful refresh, zero before it.
func (s *Service) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Translator returns a translator for lang over the current catalog.
func (s *Service) Translator(lang Lang) *Translator {
	return NewTranslator(lang, s.Catalog())
}
