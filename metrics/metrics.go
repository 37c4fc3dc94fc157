// Package metrics exposes Prometheus counters for registry activity and a
// standalone metrics HTTP server.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TitlesCreated counts titles added to the registry.
	TitlesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "title_registry",
		Name:      "titles_created_total",
		Help:      "Number of land titles added to the registry.",
	})

	// TitlesRegistered counts completed registrations.
	TitlesRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "title_registry",
		Name:      "titles_registered_total",
		Help:      "Number of land titles that completed registration.",
	})

	// FeesForwardedWei accumulates the total payment forwarded to the
	// registry identity, in wei.
	FeesForwardedWei = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "title_registry",
		Name:      "fees_forwarded_wei_total",
		Help:      "Total wei forwarded to the registry identity.",
	})

	// DocumentsArchived counts documents stored in the archive by namespace.
	DocumentsArchived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "title_registry",
		Name:      "documents_archived_total",
		Help:      "Number of documents stored in the archive.",
	}, []string{"content_type"})
)

// MetricsServer serves the Prometheus scrape endpoint on its own listener.
type MetricsServer struct {
	srv *http.Server
}

var buildInfoOnce sync.Once

// New creates a metrics server listening on addr. The service label is baked
// into a build info gauge for dashboard filtering.
func New(service, addr string) (*MetricsServer, error) {
	buildInfoOnce.Do(func() {
		promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "title_registry",
			Name:      "build_info",
			Help:      "Always 1, labeled with the service name.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		}).Set(1)
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the scrape endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
