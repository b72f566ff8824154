package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/fsnotify/fsnotify"

	"mercator-hq/importcheck/pkg/batch"
	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
)

// Config configures a Watcher.
type Config struct {
	// Path is the directory tree to watch.
	Path string

	// Debounce is the quiet period after the last event for a file before
	// it is validated.
	// Default: 100ms
	Debounce time.Duration

	// Workers bounds concurrent validations.
	// Default: 4
	Workers int

	// QueueSize bounds validations waiting for a worker. 0 is unbounded.
	QueueSize int

	// Extensions selects export files. Empty means every supported format.
	Extensions []string

	// SkipHidden ignores dot files and dot directories.
	SkipHidden bool

	// InitialScan validates every existing file when Watch starts.
	InitialScan bool
}

// ConfigFrom builds a watcher config from the application config.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Path:        cfg.Watch.Path,
		Debounce:    cfg.Watch.Debounce,
		Workers:     cfg.Watch.Workers,
		QueueSize:   cfg.Watch.QueueSize,
		Extensions:  cfg.Validation.Extensions,
		SkipHidden:  config.BoolValue(cfg.Watch.SkipHidden, config.DefaultWatchSkipHidden),
		InitialScan: true,
	}
}

// ResultFunc receives the outcome of every validation the watcher runs.
// It is called from worker goroutines.
type ResultFunc func(*imports.Result)

// Watcher validates export files as they change on disk. Events are
// filtered by extension, debounced per file and validated on a bounded
// worker pool.
type Watcher struct {
	config   *Config
	service  *imports.Service
	filter   batch.ExpandOptions
	metrics  *metrics.Collector
	logger   *slog.Logger
	onResult ResultFunc

	fsw      *fsnotify.Watcher
	debounce *debouncer
	pool     pond.Pool

	mu      sync.Mutex
	running bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithMetrics counts accepted filesystem events.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Watcher) { w.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l.With("component", "watch") }
}

// WithResultFunc is called with every validation result.
func WithResultFunc(fn ResultFunc) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New creates a watcher. Watch starts it.
func New(cfg *Config, service *imports.Service, opts ...Option) (*Watcher, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if service == nil {
		return nil, fmt.Errorf("validation service is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = config.DefaultWatchDebounce
	}
	if cfg.Workers <= 0 {
		cfg.Workers = config.DefaultWatchWorkers
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to access watch path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", cfg.Path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		config:   cfg,
		service:  service,
		filter:   batch.ExpandOptions{Extensions: cfg.Extensions, SkipHidden: cfg.SkipHidden},
		logger:   slog.Default().With("component", "watch"),
		fsw:      fsw,
		debounce: newDebouncer(cfg.Debounce),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch blocks until ctx is canceled, validating files as they change.
// Pending validations are finished before it returns.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	poolOpts := []pond.Option{pond.WithContext(ctx)}
	if w.config.QueueSize > 0 {
		poolOpts = append(poolOpts, pond.WithQueueSize(w.config.QueueSize))
	}
	w.pool = pond.NewPool(w.config.Workers, poolOpts...)

	defer func() {
		w.debounce.Stop()
		w.pool.StopAndWait()
		w.fsw.Close()

		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.addTree(w.config.Path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Path, err)
	}

	w.logger.Info("watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.Debounce.Milliseconds(),
		"workers", w.config.Workers,
	)

	if w.config.InitialScan {
		w.scan(ctx, w.config.Path)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.debounce.Cancel(path)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.filter.SkipHidden && isHidden(filepath.Base(path)) {
				return
			}
			if err := w.addTree(path); err != nil {
				w.logger.Error("failed to watch new directory", "path", path, "error", err)
				return
			}
			// Files may have landed before the directory was watched.
			w.scan(ctx, path)
			return
		}
	}

	if !w.filter.Accepts(path) {
		return
	}

	op := "write"
	if event.Has(fsnotify.Create) {
		op = "create"
	}
	w.metrics.RecordWatchEvent(op)
	w.logger.Debug("file event", "path", path, "op", op)

	w.debounce.Trigger(path, func() { w.submit(ctx, path) })
}

// scan submits every accepted file below dir.
func (w *Watcher) scan(ctx context.Context, dir string) {
	files, err := batch.Expand([]string{dir}, w.filter)
	if err != nil {
		w.logger.Error("failed to scan directory", "path", dir, "error", err)
		return
	}
	for _, f := range files {
		w.submit(ctx, f)
	}
}

func (w *Watcher) submit(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	w.pool.Submit(func() {
		res, err := w.service.Validate(ctx, imports.Input{Path: path, Origin: imports.OriginWatch})
		if err != nil {
			return
		}
		if errors.Is(res.Err(), fs.ErrNotExist) {
			// Deleted between event and validation.
			return
		}
		if w.onResult != nil {
			w.onResult(res)
		}
	})
}

// addTree watches dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.filter.SkipHidden && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}
