package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chambridge/vmonviz/internal/chart"
	"github.com/chambridge/vmonviz/internal/db"
	"github.com/chambridge/vmonviz/internal/observability"
	"github.com/chambridge/vmonviz/internal/processor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is the part of the store the batch reads from.
type Source interface {
	ActiveEntities(ctx context.Context) ([]db.Entity, error)
	VMLoads(ctx context.Context, vmID int64, since time.Time) ([]db.VMLoad, error)
	GPULoads(ctx context.Context, vmID int64, since time.Time) ([]db.GPULoad, error)
}

// Options configures a Runner. A zero Policy or LookbackDays means a trailing
// 30 day window. Logger and Recorder are optional.
type Options struct {
	Source       Source
	Renderer     *chart.Renderer
	Logger       *zap.Logger
	Recorder     *observability.Recorder
	Policy       WindowPolicy
	LookbackDays int
	Now          func() time.Time
}

// Summary counts what a run produced. Charts are counted as they are written,
// so a VM can count toward a chart total and toward Failed.
type Summary struct {
	WindowStart time.Time
	Entities    int
	VMCharts    int
	GPUCharts   int
	Skipped     int
	Failed      int
}

type Runner struct {
	source   Source
	renderer *chart.Renderer
	log      *zap.Logger
	recorder *observability.Recorder
	policy   WindowPolicy
	days     int
	now      func() time.Time
}

func New(opts Options) *Runner {
	r := &Runner{
		source:   opts.Source,
		renderer: opts.Renderer,
		log:      opts.Logger,
		recorder: opts.Recorder,
		policy:   opts.Policy,
		days:     opts.LookbackDays,
		now:      opts.Now,
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.policy == "" {
		r.policy = WindowTrailing
	}
	if r.days == 0 {
		r.days = DefaultLookbackDays
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

type entityResult struct {
	vmChart  bool
	gpuChart bool
}

// Run draws the charts for every active VM. Only a failure to list the VMs
// or a canceled context ends the run early; errors for a single VM are logged
// and counted. The summary covers whatever was done before Run returned.
func (r *Runner) Run(ctx context.Context) (summary Summary, err error) {
	started := r.now()
	log := r.log.With(zap.String("run_id", uuid.NewString()))
	defer func() {
		r.finish(log, started, summary, err)
	}()

	since, err := WindowStart(started, r.policy, r.days)
	if err != nil {
		return summary, err
	}
	summary.WindowStart = since

	entities, err := r.source.ActiveEntities(ctx)
	if err != nil {
		return summary, err
	}
	summary.Entities = len(entities)
	if r.recorder != nil {
		r.recorder.RecordEntities(len(entities))
	}

	log.Info("found VMs", zap.Int("count", len(entities)))
	log.Info("fetching data since", zap.Time("since", since), zap.String("policy", string(r.policy)))

	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		elog := log.With(zap.Int64("vm_id", e.ID), zap.String("hostname", e.Hostname))
		elog.Info("VM",
			zap.String("ip", e.IP),
			zap.Bool("gpu", e.HasGPU),
			zap.Float64("gpu_ram_gb", e.GPURAMGB))

		res, err := r.processEntity(ctx, elog, e, since)
		if res.gpuChart {
			summary.GPUCharts++
		}
		if res.vmChart {
			summary.VMCharts++
		}
		if err != nil {
			kind := ErrorKind(err)
			elog.Error("chart generation failed", zap.String("kind", kind), zap.Error(err))
			summary.Failed++
			if r.recorder != nil {
				r.recorder.RecordFailure(kind)
			}
			continue
		}
		if !res.gpuChart && !res.vmChart {
			summary.Skipped++
		}
	}

	return summary, nil
}

func (r *Runner) finish(log *zap.Logger, started time.Time, summary Summary, err error) {
	finished := r.now()
	if r.recorder != nil {
		r.recorder.RecordRun(finished, finished.Sub(started), err == nil)
	}
	fields := []zap.Field{
		zap.Int("vms", summary.Entities),
		zap.Int("vm_charts", summary.VMCharts),
		zap.Int("gpu_charts", summary.GPUCharts),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	}
	if err != nil {
		log.Error("run stopped early", append(fields, zap.Error(err))...)
		return
	}
	log.Info("run complete", fields...)
}

// processEntity fetches and normalizes every category before drawing, so a
// fetch or configuration error leaves no output for e. Charts are drawn GPU
// first; if the VM chart then fails the GPU chart stays written and res says so.
func (r *Runner) processEntity(ctx context.Context, log *zap.Logger, e db.Entity, since time.Time) (res entityResult, err error) {
	var gpuLoads []db.GPULoad
	if e.HasGPU {
		gpuLoads, err = r.source.GPULoads(ctx, e.ID, since)
		if err != nil {
			return res, err
		}
	}
	vmLoads, err := r.source.VMLoads(ctx, e.ID, since)
	if err != nil {
		return res, err
	}
	if r.recorder != nil {
		r.recorder.RecordSamples(string(chart.CategoryGPU), len(gpuLoads))
		r.recorder.RecordSamples(string(chart.CategoryVM), len(vmLoads))
	}

	var gpuSeries processor.GPUSeries
	if len(gpuLoads) > 0 {
		if gpuSeries, err = buildGPUSeries(e, gpuLoads); err != nil {
			return res, err
		}
	} else if e.HasGPU {
		log.Info("no GPU samples in window, skipping GPU chart")
	}

	var vmSeries processor.VMSeries
	if len(vmLoads) > 0 {
		if vmSeries, err = buildVMSeries(e, vmLoads); err != nil {
			return res, err
		}
	} else {
		log.Info("no VM samples in window, skipping VM chart")
	}

	if gpuSeries.Len() > 0 {
		fig, err := r.renderer.GPULoad(e, gpuSeries, true)
		if err != nil {
			return res, err
		}
		res.gpuChart = true
		r.chartWritten(log, fig, gpuSeries.Len())
	}
	if vmSeries.Len() > 0 {
		fig, err := r.renderer.VMLoad(e, vmSeries, true)
		if err != nil {
			return res, err
		}
		res.vmChart = true
		r.chartWritten(log, fig, vmSeries.Len())
	}
	return res, nil
}

func (r *Runner) chartWritten(log *zap.Logger, fig *chart.Figure, samples int) {
	log.Info("wrote chart",
		zap.String("category", string(fig.Category)),
		zap.String("path", fig.Path),
		zap.Int("samples", samples))
	if r.recorder != nil {
		r.recorder.RecordChart(string(fig.Category))
	}
}

// VMChart renders an unsaved VM figure for e covering samples since the given
// time. The caller owns the figure and must Close it.
func (r *Runner) VMChart(ctx context.Context, e db.Entity, since time.Time) (*chart.Figure, error) {
	loads, err := r.source.VMLoads(ctx, e.ID, since)
	if err != nil {
		return nil, err
	}
	s, err := buildVMSeries(e, loads)
	if err != nil {
		return nil, err
	}
	return r.renderer.VMLoad(e, s, false)
}

// GPUChart is VMChart for the GPU panels.
func (r *Runner) GPUChart(ctx context.Context, e db.Entity, since time.Time) (*chart.Figure, error) {
	if !e.HasGPU {
		return nil, fmt.Errorf("vm %s has no GPU", e.Hostname)
	}
	loads, err := r.source.GPULoads(ctx, e.ID, since)
	if err != nil {
		return nil, err
	}
	s, err := buildGPUSeries(e, loads)
	if err != nil {
		return nil, err
	}
	return r.renderer.GPULoad(e, s, false)
}

func buildVMSeries(e db.Entity, loads []db.VMLoad) (processor.VMSeries, error) {
	points, err := processor.NormalizeVMLoads(e, loads)
	if err != nil {
		return processor.VMSeries{}, err
	}
	return processor.BuildVMSeries(points)
}

func buildGPUSeries(e db.Entity, loads []db.GPULoad) (processor.GPUSeries, error) {
	points, err := processor.NormalizeGPULoads(e, loads)
	if err != nil {
		return processor.GPUSeries{}, err
	}
	return processor.BuildGPUSeries(points)
}

// ErrorKind names the class of a per-VM failure for logs and metrics.
func ErrorKind(err error) string {
	var cfgErr *processor.ConfigurationError
	var fetchErr *db.FetchError
	var renderErr *chart.RenderError
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &renderErr):
		return "render"
	default:
		return "unknown"
	}
}
