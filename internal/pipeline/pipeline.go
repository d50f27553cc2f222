// Package pipeline builds and exports geodata for a batch of maps.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/geobuild/internal/exporter"
	"github.com/Faultbox/geobuild/pkg/geodata"
)

// Job is one map to build.
type Job struct {
	Name string
	Map  *geodata.Map
}

// Result describes a finished job.
type Result struct {
	Name     string
	Path     string // empty when export is disabled
	Stats    geodata.BuildStats
	Duration time.Duration
	Err      error
}

// ExporterFactory creates the exporter used by one worker.
type ExporterFactory func() (*exporter.Exporter, error)

// Runner builds maps on a fixed number of workers. Each worker owns its
// builder and exporter, so export buffers are never shared.
type Runner struct {
	settings    geodata.Settings
	workers     int
	newExporter ExporterFactory
	log         *zap.Logger
}

// NewRunner creates a runner. A nil factory disables export.
func NewRunner(settings geodata.Settings, workers int, newExporter ExporterFactory, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		settings:    settings,
		workers:     max(1, workers),
		newExporter: newExporter,
		log:         log,
	}
}

// Run processes jobs until all are done or ctx is cancelled. Results are
// returned in job order. The error combines every failed job.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if err := r.settings.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, len(jobs))
	queue := make(chan int)

	done := make([]bool, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < min(r.workers, max(1, len(jobs))); i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.worker(id, jobs, queue, results, done)
		}(i)
	}

feed:
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case queue <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	var err error
	for i := range results {
		if !done[i] {
			results[i] = Result{Name: jobs[i].Name, Err: ctx.Err()}
		}
		if results[i].Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", jobs[i].Name, results[i].Err))
		}
	}
	return results, err
}

func (r *Runner) worker(id int, jobs []Job, queue <-chan int, results []Result, done []bool) {
	log := r.log.With(zap.Int("worker", id))
	builder := geodata.NewBuilder(log)

	var exp *exporter.Exporter
	var setupErr error
	if r.newExporter != nil {
		exp, setupErr = r.newExporter()
	}

	for i := range queue {
		done[i] = true
		if setupErr != nil {
			results[i] = Result{Name: jobs[i].Name, Err: setupErr}
			continue
		}
		results[i] = r.process(log, builder, exp, jobs[i])
	}
}

func (r *Runner) process(log *zap.Logger, builder *geodata.Builder, exp *exporter.Exporter, job Job) Result {
	start := time.Now()
	res := Result{Name: job.Name}

	g, stats, err := builder.Build(job.Map, r.settings)
	res.Stats = stats
	if err != nil {
		res.Err = fmt.Errorf("building: %w", err)
		res.Duration = time.Since(start)
		log.Error("build failed", zap.String("map", job.Name), zap.Error(err))
		return res
	}

	if exp != nil {
		res.Path, err = exp.Export(job.Name, g)
		if err != nil {
			res.Err = fmt.Errorf("exporting: %w", err)
			log.Error("export failed", zap.String("map", job.Name), zap.Error(err))
		}
	}

	res.Duration = time.Since(start)
	log.Info("map done",
		zap.String("map", job.Name),
		zap.Int("cells", stats.Cells),
		zap.Duration("duration", res.Duration))
	return res
}
