package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/newswire/core"
)

// Adapter collects raw news candidates about an entity.
type Adapter interface {
	// Name identifies the adapter in logs.
	Name() string

	// Fetch returns raw candidates for entity. It may return a partial list
	// together with an error.
	Fetch(ctx context.Context, entity string) ([]core.RawArticle, error)
}

// Multi fans a fetch out to several adapters in order and merges the results.
type Multi struct {
	adapters []Adapter
	logger   *slog.Logger
}

var _ Adapter = (*Multi)(nil)

// NewMulti combines adapters. Results keep adapter order.
func NewMulti(logger *slog.Logger, adapters ...Adapter) (*Multi, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{
		adapters: adapters,
		logger:   logger.With("component", "source"),
	}, nil
}

func (m *Multi) Name() string {
	return "multi"
}

// Fetch queries every adapter and concatenates their candidates, keeping the
// first occurrence of each URL. It fails only when every adapter failed.
func (m *Multi) Fetch(ctx context.Context, entity string) ([]core.RawArticle, error) {
	var (
		results []core.RawArticle
		errs    []error
		seen    = make(map[string]struct{})
	)

	for _, a := range m.adapters {
		raws, err := a.Fetch(ctx, entity)
		if err != nil {
			m.logger.Warn("adapter failed", "adapter", a.Name(), "entity", entity, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
		}
		for _, raw := range raws {
			key := core.NormalizeURL(raw.URL)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, raw)
		}
		m.logger.Debug("adapter fetched", "adapter", a.Name(), "entity", entity, "count", len(raws))
	}

	if len(errs) == len(m.adapters) {
		return results, fmt.Errorf("%w: %w", ErrSource, errors.Join(errs...))
	}
	return results, nil
}
