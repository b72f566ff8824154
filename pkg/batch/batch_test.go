package batch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mercator-hq/importcheck/pkg/imports"
)

const validExport = `<?xml version="1.0" encoding="UTF-8"?>
<zabbix_export>
    <version>2.0</version>
    <date>2021-06-15T10:30:00Z</date>
    <groups>
        <group>
            <name>Linux servers</name>
        </group>
    </groups>
</zabbix_export>
`

const invalidExport = `{"zabbix_export": {"groups": [{"nmae": "Linux servers"}]}}`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newService() *imports.Service {
	return imports.NewService(imports.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.xml"), validExport)
	b := writeFile(t, filepath.Join(dir, "sub", "b.JSON"), invalidExport)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(dir, ".git", "c.xml"), validExport)
	writeFile(t, filepath.Join(dir, ".hidden.yaml"), "zabbix_export: {}")
	explicit := writeFile(t, filepath.Join(t.TempDir(), "export.txt"), validExport)

	tests := []struct {
		name  string
		paths []string
		opts  ExpandOptions
		want  []string
	}{
		{
			name:  "directory skips hidden and unsupported",
			paths: []string{dir},
			opts:  ExpandOptions{SkipHidden: true},
			want:  []string{a, b},
		},
		{
			name:  "hidden entries included",
			paths: []string{dir},
			opts:  ExpandOptions{},
			want:  []string{filepath.Join(dir, ".git", "c.xml"), filepath.Join(dir, ".hidden.yaml"), a, b},
		},
		{
			name:  "extension filter",
			paths: []string{dir},
			opts:  ExpandOptions{Extensions: []string{".xml"}, SkipHidden: true},
			want:  []string{a},
		},
		{
			name:  "explicit file kept and duplicates dropped",
			paths: []string{explicit, a, dir},
			opts:  ExpandOptions{SkipHidden: true},
			want:  []string{explicit, a, b},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.paths, tt.opts)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpand_MissingPath(t *testing.T) {
	_, err := Expand([]string{filepath.Join(t.TempDir(), "absent")}, ExpandOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expand() error = %v, want not exist", err)
	}
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, content := range []string{validExport, invalidExport, "{broken", validExport, invalidExport, validExport} {
		ext := ".xml"
		if content != validExport {
			ext = ".json"
		}
		paths = append(paths, writeFile(t, filepath.Join(dir, string(rune('a'+i))+ext), content))
	}

	var calls int
	runner := NewRunner(newService(),
		WithConcurrency(3),
		WithOrigin(imports.OriginGit),
		WithCommit("abc123"),
		WithProgress(func(done, total int, _ *imports.Result) {
			calls++
			if total != len(paths) || done != calls {
				t.Errorf("progress(%d, %d) after %d calls", done, total, calls)
			}
		}),
	)

	results, err := runner.Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, r := range results {
		if r.Source != paths[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Source, paths[i])
		}
		if r.Origin != imports.OriginGit || r.Commit != "abc123" {
			t.Errorf("result %d not stamped: %q %q", i, r.Origin, r.Commit)
		}
	}

	totals := Tally(results)
	want := Totals{Files: 6, Valid: 3, Invalid: 2, Errors: 1}
	if totals != want {
		t.Errorf("Tally() = %+v, want %+v", totals, want)
	}
	if totals.OK() {
		t.Error("OK() true with failures")
	}
	if calls != len(paths) {
		t.Errorf("progress called %d times", calls)
	}
}

func TestRunner_Canceled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "a.xml"), validExport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRunner(newService()).Run(ctx, []string{path}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunner_Empty(t *testing.T) {
	results, err := NewRunner(newService()).Run(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("Run(nil) = %v, %v", results, err)
	}
	if !Tally(results).OK() {
		t.Error("empty batch should be OK")
	}
}
