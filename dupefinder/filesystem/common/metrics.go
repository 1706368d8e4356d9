package common

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics shared by the scanner and the relocator.
var (
	FilesScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupefinder_files_scanned_total",
			Help: "Media files hashed by the scanner, by kind",
		},
		[]string{"kind"},
	)

	ScanDiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupefinder_scan_diagnostics_total",
			Help: "Per-file problems recorded during scans, by operation",
		},
		[]string{"op"},
	)

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dupefinder_scan_duration_seconds",
		Help:    "Wall time of complete scans",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	FilesRelocatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupefinder_files_relocated_total",
		Help: "Duplicate files moved into a review area",
	})

	RelocationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupefinder_relocation_errors_total",
		Help: "Per-file relocation or undo failures",
	})
)

// BaseMetrics tracks in-process operation counts for a single component.
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	LastDuration    time.Duration
	Mu              sync.RWMutex
}

// UpdateBaseMetrics records one finished operation.
func (bm *BaseMetrics) UpdateBaseMetrics(start time.Time, success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
	bm.LastDuration = bm.LastOperation.Sub(start)
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]interface{} {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
		"last_duration":    bm.LastDuration,
	}
}
