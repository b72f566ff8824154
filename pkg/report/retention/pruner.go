package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/report/export"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
)

// Prune reasons, used as the metrics label.
const (
	ReasonAge   = "age"
	ReasonCount = "count"
)

// Pruner deletes reports that fall outside the retention policy.
type Pruner struct {
	storage   report.Storage
	config    config.RetentionConfig
	metrics   *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
	scheduler *Scheduler
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithMetrics counts pruned reports.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pruner) { p.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pruner) { p.logger = l.With("component", "report.retention") }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) { p.now = now }
}

// NewPruner creates a pruner for storage. A RetentionDays <= 0 disables
// age based pruning and a MaxRecords <= 0 disables count based pruning.
func NewPruner(storage report.Storage, cfg config.RetentionConfig, opts ...Option) *Pruner {
	p := &Pruner{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "report.retention"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune runs both phases, age then count, and returns the total number of
// reports deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.metrics.RecordReportsPruned(ReasonAge, int(deleted))
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.metrics.RecordReportsPruned(ReasonCount, int(deleted))
	}

	if total == 0 {
		p.logger.Debug("no reports pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("report pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	q := &report.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		reports, err := p.storage.Query(ctx, q)
		if err != nil {
			return 0, report.NewRetentionError(p.config.RetentionDays, err)
		}
		if err := p.archive(ctx, ReasonAge, reports); err != nil {
			return 0, report.NewRetentionError(p.config.RetentionDays, err)
		}
	}

	deleted, err := p.storage.Delete(ctx, q)
	if err != nil {
		return 0, report.NewRetentionError(p.config.RetentionDays, err)
	}
	p.logger.Debug("pruned reports by age", "deleted_count", deleted, "cutoff_time", cutoff)
	return deleted, nil
}

// pruneByCount deletes the oldest reports beyond MaxRecords.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &report.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := int(count - p.config.MaxRecords)
	oldest, err := p.storage.Query(ctx, &report.Query{
		Limit:     excess,
		SortBy:    "validated_at",
		SortOrder: "asc",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query reports: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, ReasonCount, oldest); err != nil {
			return 0, fmt.Errorf("archive failed: %w", err)
		}
	}

	ids := make([]string, len(oldest))
	for i, r := range oldest {
		ids[i] = r.ID
	}

	var deleted int64
	for start := 0; start < len(ids); start += deleteBatch {
		end := min(start+deleteBatch, len(ids))
		n, err := p.storage.Delete(ctx, &report.Query{IDs: ids[start:end]})
		if err != nil {
			return deleted, fmt.Errorf("delete failed: %w", err)
		}
		deleted += n
	}

	p.logger.Debug("pruned reports by count",
		"deleted_count", deleted,
		"current_count", count,
		"max_records", p.config.MaxRecords,
	)
	return deleted, nil
}

// deleteBatch keeps IN lists under SQLite's bound parameter limit.
const deleteBatch = 500

// archive writes reports to a timestamped JSON file under ArchivePath.
func (p *Pruner) archive(ctx context.Context, reason string, reports []*report.Report) error {
	if len(reports) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("reports-%s-%s.json", reason, p.now().UTC().Format("2006-01-02-150405.000"))
	path := filepath.Join(p.config.ArchivePath, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if err := export.NewJSONExporter(true).Export(ctx, reports, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export reports to archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	p.logger.Info("reports archived", "archive_file", path, "report_count", len(reports))
	return nil
}

// Start runs Prune on the configured schedule until ctx is canceled.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the schedule and waits for a running prune.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil when not scheduled.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
