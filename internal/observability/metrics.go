package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects per-run batch metrics on its own registry so they can be
// exported as a node-exporter textfile when the run ends.
type Recorder struct {
	registry      *prometheus.Registry
	entities      prometheus.Gauge
	samplesTotal  *prometheus.CounterVec
	chartsWritten *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	lastRun       prometheus.Gauge
	lastSuccess   prometheus.Gauge
	runDuration   prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		entities: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmonviz_entities",
			Help: "Active VMs found in the catalog during the last run",
		}),
		samplesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vmonviz_samples_total",
			Help: "Load samples read inside the lookback window",
		}, []string{"category"}),
		chartsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vmonviz_charts_written_total",
			Help: "Chart images written",
		}, []string{"category"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vmonviz_entity_failures_total",
			Help: "VMs whose charts could not be produced, by error kind",
		}, []string{"kind"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmonviz_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmonviz_last_run_success",
			Help: "1 if the last run went through the whole catalog, 0 if it stopped early",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmonviz_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
}

func (r *Recorder) RecordEntities(n int) {
	r.entities.Set(float64(n))
}

func (r *Recorder) RecordSamples(category string, n int) {
	r.samplesTotal.WithLabelValues(category).Add(float64(n))
}

func (r *Recorder) RecordChart(category string) {
	r.chartsWritten.WithLabelValues(category).Inc()
}

func (r *Recorder) RecordFailure(kind string) {
	r.failuresTotal.WithLabelValues(kind).Inc()
}

// RecordRun stamps the end of a run. ok is false when the run stopped early.
func (r *Recorder) RecordRun(finished time.Time, took time.Duration, ok bool) {
	r.lastRun.Set(float64(finished.Unix()))
	r.runDuration.Set(took.Seconds())
	if ok {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
