package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"mercator-hq/importcheck/pkg/imports"
)

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(4)
	progress.Update(1, &imports.Result{Valid: true})
	progress.Update(2, &imports.Result{Valid: false})
	progress.Finish()

	output := buf.String()
	for _, want := range []string{"Validating:", "(4/4)", "1 failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %q", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Finish() should end the line")
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Update(0, nil)
	progress.Finish()

	if got := buf.String(); got != "\n" {
		t.Errorf("output = %q, want a bare newline", got)
	}
}

func TestSimpleProgressFunc(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)
	progress.Start(100)

	fn := progress.Func()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 1; j <= 10; j++ {
				fn(start*10+j, 100, &imports.Result{Valid: j%2 == 0})
			}
		}(i)
	}
	wg.Wait()
	progress.Finish()

	if !strings.Contains(buf.String(), "50 failed") {
		t.Errorf("expected 50 failed files in %q", buf.String())
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress.writer == nil {
		t.Error("NewProgressReporter(nil) should default the writer")
	}
}
