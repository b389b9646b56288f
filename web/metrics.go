package web

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mogaika/glacier_browser/utils"
)

type metrics struct {
	decoded   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	cacheHits prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		decoded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glacier",
			Subsystem: "browser",
			Name:      "decoded_files_total",
			Help:      "Files decoded successfully, by format",
		}, []string{"format"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glacier",
			Subsystem: "browser",
			Name:      "decode_failures_total",
			Help:      "Files that failed to decode, by format and error kind",
		}, []string{"format", "kind"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glacier",
			Subsystem: "browser",
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding a file",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"format"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "glacier",
			Subsystem: "browser",
			Name:      "json_cache_hits_total",
			Help:      "Decoded json served from cache",
		}),
	}
}

// errorKind labels err by the codec error taxonomy.
func errorKind(err error) string {
	switch {
	case errors.Is(err, utils.ErrUnexpectedEndOfStream):
		return "truncated"
	case errors.Is(err, utils.ErrStructuralMismatch):
		return "structure"
	case errors.Is(err, utils.ErrVersionMismatch):
		return "version"
	case errors.Is(err, utils.ErrUserInputMismatch):
		return "input"
	}
	return "other"
}
