package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
)

const validYAML = `zabbix_export:
  version: "2.0"
  date: "2021-06-15T10:30:00Z"
  groups:
    - name: Linux servers
`

const invalidYAML = `zabbix_export:
  version: "2.0"
  date: "2021-06-15 10:30:00Z"
`

type collector struct {
	mu      sync.Mutex
	results map[string]*imports.Result
	ch      chan *imports.Result
}

func newCollector() *collector {
	return &collector{results: make(map[string]*imports.Result), ch: make(chan *imports.Result, 64)}
}

func (c *collector) add(r *imports.Result) {
	c.mu.Lock()
	c.results[filepath.Base(r.Source)] = r
	c.mu.Unlock()
	c.ch <- r
}

// await waits for a result for the named file.
func (c *collector) await(t *testing.T, name string) *imports.Result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		c.mu.Lock()
		r, ok := c.results[name]
		c.mu.Unlock()
		if ok {
			return r
		}
		select {
		case <-c.ch:
		case <-deadline:
			t.Fatalf("no result for %s", name)
		}
	}
}

func startWatcher(t *testing.T, dir string, c *collector, initialScan bool) context.CancelFunc {
	t.Helper()

	w, err := New(&Config{
		Path:        dir,
		Debounce:    20 * time.Millisecond,
		Workers:     2,
		SkipHidden:  true,
		InitialScan: initialScan,
	}, imports.NewService(), WithResultFunc(c.add))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give fsnotify time to register the tree.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherValidatesChanges(t *testing.T) {
	dir := t.TempDir()
	c := newCollector()
	stop := startWatcher(t, dir, c, false)
	defer stop()

	write(t, filepath.Join(dir, "good.yaml"), validYAML)
	write(t, filepath.Join(dir, "bad.yaml"), invalidYAML)
	write(t, filepath.Join(dir, "notes.txt"), "not an export")
	write(t, filepath.Join(dir, ".hidden.yaml"), invalidYAML)

	if r := c.await(t, "good.yaml"); !r.Valid || r.Origin != imports.OriginWatch {
		t.Errorf("good.yaml: valid=%v origin=%s err=%v", r.Valid, r.Origin, r.Err())
	}
	if r := c.await(t, "bad.yaml"); r.Valid || r.Kind() != "InvalidDateTime" {
		t.Errorf("bad.yaml: valid=%v kind=%s", r.Valid, r.Kind())
	}

	time.Sleep(100 * time.Millisecond)
	c.mu.Lock()
	_, txt := c.results["notes.txt"]
	_, hidden := c.results[".hidden.yaml"]
	c.mu.Unlock()
	if txt || hidden {
		t.Errorf("filtered files validated: txt=%v hidden=%v", txt, hidden)
	}
}

func TestWatcherNewDirectory(t *testing.T) {
	dir := t.TempDir()
	c := newCollector()
	stop := startWatcher(t, dir, c, false)
	defer stop()

	sub := filepath.Join(dir, "site-a")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(sub, "nested.yaml"), validYAML)

	if r := c.await(t, "nested.yaml"); !r.Valid {
		t.Errorf("nested.yaml invalid: %v", r.Err())
	}
}

func TestWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "existing.yaml"), validYAML)

	c := newCollector()
	stop := startWatcher(t, dir, c, true)
	defer stop()

	if r := c.await(t, "existing.yaml"); !r.Valid {
		t.Errorf("existing.yaml invalid: %v", r.Err())
	}
}

func TestNewErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.yaml")
	write(t, file, validYAML)

	tests := []struct {
		name string
		cfg  *Config
		svc  *imports.Service
	}{
		{name: "nil config", cfg: nil, svc: imports.NewService()},
		{name: "missing path", cfg: &Config{Path: "/does/not/exist"}, svc: imports.NewService()},
		{name: "file path", cfg: &Config{Path: file}, svc: imports.NewService()},
		{name: "nil service", cfg: &Config{Path: t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.svc); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.Path = "/srv/exports"
	cfg.Validation.Extensions = []string{".xml"}

	got := ConfigFrom(cfg)
	if got.Path != "/srv/exports" || !got.SkipHidden || got.Workers != config.DefaultWatchWorkers || len(got.Extensions) != 1 {
		t.Errorf("ConfigFrom() = %+v", got)
	}
}

func TestDebouncer(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var a, b atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger("a", func() { a.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	d.Trigger("b", func() { b.Add(1) })
	d.Trigger("c", func() { t.Error("canceled key fired") })
	d.Cancel("c")

	time.Sleep(150 * time.Millisecond)
	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("fired a=%d b=%d, want 1 each", a.Load(), b.Load())
	}
	if d.Pending() != 0 {
		t.Errorf("Pending() = %d", d.Pending())
	}

	d.Stop()
	d.Trigger("a", func() { a.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if a.Load() != 1 {
		t.Error("trigger after Stop fired")
	}
}
