package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
	"mercator-hq/importcheck/pkg/imports/messages"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
)

// ErrClosed is returned when recording after Close.
var ErrClosed = errors.New("recorder closed")

// Config configures the recorder.
type Config struct {
	// AsyncBuffer is the size of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both enqueueing and each storage write.
	// Default: 5s
	WriteTimeout time.Duration

	// Locale selects the language of stored messages.
	// Default: "en"
	Locale string
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  config.DefaultStorageBufferSize,
		WriteTimeout: config.DefaultStorageWriteTimeout,
		Locale:       "en",
	}
}

// Recorder turns validation results into reports and writes them to
// storage from a background worker. It implements imports.Recorder.
type Recorder struct {
	storage report.Storage
	config  *Config
	printer *messages.Printer
	metrics *metrics.Collector
	backend string
	logger  *slog.Logger
	now     func() time.Time

	queue     chan *report.Report
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMetrics counts stored reports under the given backend label.
func WithMetrics(c *metrics.Collector, backend string) Option {
	return func(r *Recorder) {
		r.metrics = c
		r.backend = backend
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l.With("component", "report.recorder") }
}

// NewRecorder starts a recorder writing to storage. Close must be called
// to flush queued reports.
func NewRecorder(storage report.Storage, cfg *Config, opts ...Option) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultStorageBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultStorageWriteTimeout
	}

	r := &Recorder{
		storage: storage,
		config:  cfg,
		printer: messages.NewPrinter(cfg.Locale),
		logger:  slog.Default().With("component", "report.recorder"),
		now:     time.Now,
		queue:   make(chan *report.Report, cfg.AsyncBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("report recorder started",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record queues a report for res. Failures are logged, never returned, so
// validation callers are not affected by storage problems.
func (r *Recorder) Record(ctx context.Context, res *imports.Result) {
	if err := r.Enqueue(r.NewReport(res)); err != nil {
		r.logger.ErrorContext(ctx, "failed to queue report", "source", res.Source, "error", err)
	}
}

// Enqueue queues rep for writing. It waits at most WriteTimeout for room
// in the queue.
func (r *Recorder) Enqueue(rep *report.Report) error {
	select {
	case <-r.done:
		return report.NewRecorderError(rep.ID, ErrClosed)
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.queue <- rep:
		return nil
	case <-timer.C:
		r.logger.Error("report queue full, dropping report",
			"report_id", rep.ID,
			"queue_capacity", r.config.AsyncBuffer,
		)
		return report.NewRecorderError(rep.ID, context.DeadlineExceeded)
	case <-r.done:
		return report.NewRecorderError(rep.ID, ErrClosed)
	}
}

// NewReport converts a validation result into a report with a fresh ID.
func (r *Recorder) NewReport(res *imports.Result) *report.Report {
	rep := &report.Report{
		ID:          uuid.New().String(),
		Source:      res.Source,
		Format:      string(res.Format),
		Version:     res.Version,
		Digest:      res.Digest,
		Size:        res.Size,
		Valid:       res.Valid,
		Summary:     res.Summary,
		Origin:      res.Origin,
		Commit:      res.Commit,
		ValidatedAt: res.StartedAt.UTC(),
		Duration:    res.Duration,
	}

	rep.ViolationKind = res.Kind()
	rep.Message = res.Message(r.printer)

	var v *importErrors.Violation
	if err := res.Err(); errors.As(err, &v) {
		rep.ViolationPath = string(v.Path)
		rep.ViolationField = v.Field
	}

	rep.Fingerprint = Fingerprint(rep.Digest, rep.ViolationKind, rep.ViolationPath, rep.ViolationField)
	return rep
}

// Close stops accepting reports, writes everything queued and waits for
// the worker to exit.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Debug("report recorder stopped")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rep := <-r.queue:
			r.write(rep)
		case <-r.done:
			for {
				select {
				case rep := <-r.queue:
					r.write(rep)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rep *report.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := r.now()
	rep.RecordedAt = start.UTC()

	if err := r.storage.Store(ctx, rep); err != nil {
		r.logger.Error("failed to store report",
			"report_id", rep.ID,
			"source", rep.Source,
			"error", err,
		)
		return
	}
	r.metrics.RecordReportStored(r.backend)

	elapsed := r.now().Sub(start)
	r.logger.Debug("report stored",
		"report_id", rep.ID,
		"source", rep.Source,
		"valid", rep.Valid,
		"duration_ms", elapsed.Milliseconds(),
	)
	if elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("slow report write",
			"report_id", rep.ID,
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
