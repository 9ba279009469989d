// Package metrics holds the Prometheus collectors for index builds, embedding
// calls and related-document queries. The CLI is short-lived, so collectors are
// exported through the node_exporter textfile convention instead of an HTTP endpoint.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every adr collector. It is separate from the default registry
// so textfile output carries no Go runtime metrics.
var Registry = prometheus.NewRegistry()

var (
	// IndexDocuments is the row count of the last snapshot written.
	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adr_index_documents",
			Help: "Documents in the last written snapshot",
		},
	)

	// IndexBuildsTotal counts index builds by outcome.
	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adr_index_builds_total",
			Help: "Index builds",
		},
		[]string{"status"},
	)

	// IndexBuildDuration is the wall time of the last index build in seconds.
	IndexBuildDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adr_index_build_duration_seconds",
			Help: "Duration of the last index build",
		},
	)

	// IndexLastSuccess is the unix time of the last successful build.
	IndexLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adr_index_last_success_timestamp_seconds",
			Help: "Unix time of the last successful index build",
		},
	)

	// EmbedRequestsTotal counts calls to the embedding collaborator.
	EmbedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adr_embed_requests_total",
			Help: "Embedding collaborator calls",
		},
		[]string{"provider", "status"},
	)

	// GenerateRequestsTotal counts calls to the text-generation collaborator.
	GenerateRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adr_generate_requests_total",
			Help: "Generation collaborator calls",
		},
		[]string{"provider", "status"},
	)

	// RelatedQueriesTotal counts related-document lookups by outcome.
	RelatedQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adr_related_queries_total",
			Help: "Related-document queries",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		IndexDocuments,
		IndexBuildsTotal,
		IndexBuildDuration,
		IndexLastSuccess,
		EmbedRequestsTotal,
		GenerateRequestsTotal,
		RelatedQueriesTotal,
	)
}

// Status maps an operation error to a status label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// WriteTextfile writes the registry to path in the Prometheus text format.
// The write goes through a temporary file and a rename.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("cannot write metrics %s: %w", path, err)
	}
	return nil
}
