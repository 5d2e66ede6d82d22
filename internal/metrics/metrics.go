package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ppiankov/regioncompactor/internal/models"
)

const (
	namespace = "hbase_region_compactor"
	// JobName is the Pushgateway job the run metrics are grouped under
	JobName = "hbase_region_compactor"
)

// Recorder holds the gauges describing the last pass
type Recorder struct {
	registry *prometheus.Registry

	Servers              prometheus.Gauge
	RegionsScanned       prometheus.Gauge
	RegionsDegraded      prometheus.Gauge
	RegionsCompacting    prometheus.Gauge
	CompactionsRequested prometheus.Gauge
	CompactionFailures   prometheus.Gauge
	RegionsAnomalous     prometheus.Gauge
	RunDuration          prometheus.Gauge
	LastRunTimestamp     prometheus.Gauge
}

// NewRecorder creates the gauges on a private registry
func NewRecorder() *Recorder {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	r := &Recorder{
		registry:             prometheus.NewRegistry(),
		Servers:              gauge("servers", "Live region servers in the last snapshot"),
		RegionsScanned:       gauge("regions_scanned", "Regions of selected tables evaluated in the last run"),
		RegionsDegraded:      gauge("regions_degraded", "Regions below the locality threshold in the last run"),
		RegionsCompacting:    gauge("regions_compacting", "Degraded regions already running a compaction"),
		CompactionsRequested: gauge("compactions_requested", "Major compactions requested in the last run"),
		CompactionFailures:   gauge("compaction_failures", "Major compaction requests that failed in the last run"),
		RegionsAnomalous:     gauge("regions_anomalous", "Degraded regions reporting more compacted than compacting KVs"),
		RunDuration:          gauge("run_duration_seconds", "Wall time of the last run"),
		LastRunTimestamp:     gauge("last_run_timestamp_seconds", "Unix time the last run finished"),
	}

	r.registry.MustRegister(
		r.Servers,
		r.RegionsScanned,
		r.RegionsDegraded,
		r.RegionsCompacting,
		r.CompactionsRequested,
		r.CompactionFailures,
		r.RegionsAnomalous,
		r.RunDuration,
		r.LastRunTimestamp,
	)
	return r
}

// Observe sets every gauge from a finished pass
func (r *Recorder) Observe(summary models.Summary, elapsed time.Duration) {
	r.Servers.Set(float64(summary.Servers))
	r.RegionsScanned.Set(float64(summary.RegionsScanned))
	r.RegionsDegraded.Set(float64(summary.Degraded))
	r.RegionsCompacting.Set(float64(summary.MidCompaction))
	r.CompactionsRequested.Set(float64(summary.CompactionsRequested))
	r.CompactionFailures.Set(float64(summary.CompactionFailures))
	r.RegionsAnomalous.Set(float64(summary.Anomalous))
	r.RunDuration.Set(elapsed.Seconds())
	r.LastRunTimestamp.SetToCurrentTime()
}

// Push replaces the job's metrics on the Pushgateway at url
func (r *Recorder) Push(ctx context.Context, url, instance string) error {
	pusher := push.New(url, JobName).Gatherer(r.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
