package upload

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	filesTotal   *prometheus.CounterVec
	bytesTotal   *prometheus.CounterVec
	fileDuration *prometheus.HistogramVec
	batchesTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		filesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helix",
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Files attempted by the upload runner, by file type and result.",
		}, []string{"file_type", "result"}),
		bytesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helix",
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Payload bytes acknowledged by the processor.",
		}, []string{"file_type"}),
		fileDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helix",
			Subsystem: "upload",
			Name:      "file_duration_seconds",
			Help:      "Time spent submitting a single file.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"file_type", "result"}),
		batchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helix",
			Subsystem: "upload",
			Name:      "batches_total",
			Help:      "Upload batches by final state.",
		}, []string{"state"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
