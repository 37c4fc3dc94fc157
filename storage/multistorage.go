package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/landreg/title-registry-backend/interfaces"
)

// MultiBackend aggregates several archive backends. Fetch returns the first
// hit, Store replicates to every reachable backend and succeeds if at least
// one write lands.
type MultiBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiBackend creates a multi-backend over the given backends.
func NewMultiBackend(backends []interfaces.StorageBackend, log *slog.Logger) *MultiBackend {
	if log == nil {
		log = slog.Default()
	}
	return &MultiBackend{backends: backends, log: log}
}

// Fetch tries each backend in order and returns the first successful result.
// Returns ErrContentNotFound only when every reachable backend reported a
// miss rather than a failure.
func (m *MultiBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	var errs []error
	allMisses := true

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			allMisses = false
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			allMisses = false
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Archive fetch failed on backend",
			"err", err,
			slog.String("backend", backend.Name()),
			slog.String("contentID", id.String()))
	}

	if allMisses && len(errs) > 0 {
		return nil, interfaces.ErrContentNotFound
	}
	return nil, fmt.Errorf("all archive backends failed to fetch %s: %v", id, errs)
}

// Store replicates data to every reachable backend. The returned content ID
// comes from the first successful write; replicas of the same data always
// hash identically.
func (m *MultiBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	var result interfaces.ContentID
	var stored int
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}

		id, err := backend.Store(ctx, data, contentType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Archive store failed on backend",
				"err", err,
				slog.String("backend", backend.Name()))
			continue
		}

		if stored == 0 {
			result = id
		}
		stored++
	}

	if stored == 0 {
		return result, fmt.Errorf("all archive backends failed to store: %v", errs)
	}

	m.log.Debug("Stored archive content",
		slog.String("contentID", result.String()),
		slog.String("contentType", contentType.String()),
		slog.Int("replicas", stored))
	return result, nil
}

// Available reports whether at least one backend is reachable.
func (m *MultiBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name lists the aggregated backend names.
func (m *MultiBackend) Name() string {
	names := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		names = append(names, backend.Name())
	}
	return fmt.Sprintf("multi[%s]", strings.Join(names, ","))
}

// LocationURI joins the aggregated backend URIs.
func (m *MultiBackend) LocationURI() string {
	uris := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		uris = append(uris, backend.LocationURI())
	}
	return strings.Join(uris, ",")
}
