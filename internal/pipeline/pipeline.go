package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/weather-data-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
	"github.com/google/uuid"
)

// Ingestor reads and normalizes the raw observations.
type Ingestor interface {
	Ingest(ctx context.Context) (domain.Table, error)
}

// Store persists a table and reads it back.
type Store interface {
	Write(ctx context.Context, t domain.Table) error
	Read(ctx context.Context) (domain.Table, error)
}

// ReportPublisher delivers a finished report run downstream.
type ReportPublisher interface {
	Publish(ctx context.Context, run domain.ReportRun) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPublisher publishes every successful report run.
func WithPublisher(p ReportPublisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// Pipeline orchestrates ingest, persist, load and report. Queries run over the
// snapshot captured by the most recent Load.
type Pipeline struct {
	ingestor  Ingestor
	store     Store
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	snapshot atomic.Pointer[domain.Table]
	latest   atomic.Pointer[domain.ReportRun]
}

// New creates a Pipeline with the given stages and observability.
func New(i Ingestor, s Store, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		ingestor: i,
		store:    s,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewForDirs creates a Pipeline reading CSV files from sourceDir and keeping
// the Parquet store in destDir.
func NewForDirs(sourceDir, destDir string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	reader := csvsource.NewReader(sourceDir, logger, csvsource.WithFilesCounter(metrics.FilesIngested))
	store := parquetstore.NewStore(destDir, logger)
	return New(reader, store, logger, metrics, opts...)
}

// IngestAndPersist reads every source file and replaces the store with the
// combined table. Nothing is written if ingestion fails.
func (p *Pipeline) IngestAndPersist(ctx context.Context) error {
	table, err := p.ingestor.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	p.metrics.RowsIngested.Add(float64(table.Len()))

	start := time.Now()
	if err := p.store.Write(ctx, table); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	p.metrics.StoreWriteDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("ingested and persisted", "rows", table.Len())
	return nil
}

// Load reads the store and makes it the snapshot for subsequent queries.
// A failed Load keeps the previous snapshot.
func (p *Pipeline) Load(ctx context.Context) error {
	table, err := p.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	p.snapshot.Store(&table)
	p.metrics.RowsLoaded.Set(float64(table.Len()))
	p.logger.Info("snapshot loaded", "rows", table.Len(), "fingerprint", table.FingerprintHex())
	return nil
}

// Snapshot returns the loaded table, or ErrNotLoaded.
func (p *Pipeline) Snapshot() (domain.Table, error) {
	t := p.snapshot.Load()
	if t == nil {
		return nil, domain.ErrNotLoaded
	}
	return *t, nil
}

// HottestDayDate returns the date with the highest mean temperature in the snapshot.
func (p *Pipeline) HottestDayDate() (domain.Date, error) {
	t, err := p.Snapshot()
	if err != nil {
		return 0, err
	}
	defer p.observeQuery(domain.ReportHottestDayDate, time.Now())
	return domain.HottestDayDate(t)
}

// HottestDayAverageTemperature returns the mean temperature of the hottest day
// in the snapshot.
func (p *Pipeline) HottestDayAverageTemperature() (float64, error) {
	t, err := p.Snapshot()
	if err != nil {
		return 0, err
	}
	defer p.observeQuery(domain.ReportHottestDayTemperature, time.Now())
	return domain.HottestDayAverageTemperature(t)
}

// HottestDayAverageTemperatureByRegion returns the date and region with the
// highest mean temperature in the snapshot.
func (p *Pipeline) HottestDayAverageTemperatureByRegion() (domain.Date, string, error) {
	t, err := p.Snapshot()
	if err != nil {
		return 0, "", err
	}
	defer p.observeQuery(domain.ReportHottestDayByRegion, time.Now())
	return domain.HottestDayByRegion(t)
}

func (p *Pipeline) observeQuery(name string, start time.Time) {
	p.metrics.QueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// BuildReport merges the three query results over the snapshot.
func (p *Pipeline) BuildReport() (domain.Report, error) {
	t, err := p.Snapshot()
	if err != nil {
		return domain.Report{}, err
	}
	return domain.BuildReport(t)
}

// Run executes ingest, persist, load and report in order, stopping at the
// first failure. The finished run becomes the latest report and is published
// when a publisher is configured.
func (p *Pipeline) Run(ctx context.Context) (domain.ReportRun, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline run started")

	run, err := p.run(ctx, runID)
	if err != nil {
		p.metrics.PipelineRuns.WithLabelValues(observability.OutcomeError).Inc()
		logger.Error("pipeline run failed", "error", err)
		return domain.ReportRun{}, err
	}

	p.metrics.PipelineRuns.WithLabelValues(observability.OutcomeSuccess).Inc()
	logger.Info("pipeline run complete", "rows", run.SourceRows, "fingerprint", run.Fingerprint)
	return run, nil
}

func (p *Pipeline) run(ctx context.Context, runID string) (domain.ReportRun, error) {
	if err := p.IngestAndPersist(ctx); err != nil {
		return domain.ReportRun{}, err
	}
	if err := p.Load(ctx); err != nil {
		return domain.ReportRun{}, err
	}
	t, err := p.Snapshot()
	if err != nil {
		return domain.ReportRun{}, err
	}
	report, err := p.BuildReport()
	if err != nil {
		return domain.ReportRun{}, err
	}

	run := domain.NewReportRun(runID, t, report)
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, run); err != nil {
			return domain.ReportRun{}, fmt.Errorf("publish report: %w", err)
		}
		p.metrics.ReportsPublished.Inc()
	}
	p.latest.Store(&run)
	return run, nil
}

// LatestReport returns the most recent successful run, if any.
func (p *Pipeline) LatestReport() (domain.ReportRun, bool) {
	r := p.latest.Load()
	if r == nil {
		return domain.ReportRun{}, false
	}
	return *r, true
}

// CheckReadiness returns nil once a snapshot has been loaded, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("no weather snapshot loaded yet")
	}
	return nil
}
