package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"mercator-hq/importcheck/pkg/cli"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/imports/messages"
	"mercator-hq/importcheck/pkg/watch"
)

var watchFlags struct {
	output    string
	lang      string
	noInitial bool
	workers   int
	showValid bool
	record    bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Validate export files as they change",
	Long: `Watch a directory tree and validate export files whenever they are
created or written. Events are debounced per file and validated on a bounded
worker pool. New subdirectories are watched automatically.

The directory defaults to watch.path from the config. Results are printed as
they arrive, one line per file (text) or one JSON object per line (json).

Examples:
  # Watch the current directory
  importcheck watch

  # Watch exports/, skip the initial scan, record reports
  importcheck watch --no-initial-scan --record exports/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.output, "output", "o", "text", "output format: text, json")
	watchCmd.Flags().StringVar(&watchFlags.lang, "lang", "", "message language (default from config)")
	watchCmd.Flags().BoolVar(&watchFlags.noInitial, "no-initial-scan", false, "do not validate existing files on start")
	watchCmd.Flags().IntVar(&watchFlags.workers, "workers", 0, "concurrent validations (default from config)")
	watchCmd.Flags().BoolVar(&watchFlags.showValid, "show-valid", false, "also print valid files")
	watchCmd.Flags().BoolVar(&watchFlags.record, "record", false, "record reports even when storage is disabled in config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	output, err := cli.ParseOutputFormat(watchFlags.output)
	if err != nil {
		return err
	}
	if output == cli.FormatCSV {
		return cli.NewConfigError("output", "watch supports text and json output")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sink, err := a.openSink(watchFlags.record)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			a.logger.Error("failed to close report storage", "error", err)
		}
	}()

	cfg := watch.ConfigFrom(a.cfg)
	if len(args) == 1 {
		cfg.Path = args[0]
	}
	if watchFlags.workers > 0 {
		cfg.Workers = watchFlags.workers
	}
	cfg.InitialScan = !watchFlags.noInitial

	lang := watchFlags.lang
	if lang == "" {
		lang = a.cfg.Validation.Locale
	}
	printer := &resultPrinter{
		w:         cmd.OutOrStdout(),
		json:      output == cli.FormatJSON,
		showValid: watchFlags.showValid || verbose,
		messages:  messages.NewPrinter(lang),
	}

	service := a.newService(decoder.FormatAuto, sink.Recorder())
	w, err := watch.New(cfg, service,
		watch.WithMetrics(a.tel.Metrics),
		watch.WithLogger(a.logger),
		watch.WithResultFunc(printer.print),
	)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	return w.Watch(cmd.Context())
}

// resultPrinter writes watcher results as they arrive. Results come from
// worker goroutines.
type resultPrinter struct {
	mu        sync.Mutex
	w         io.Writer
	json      bool
	showValid bool
	messages  *messages.Printer
}

func (p *resultPrinter) print(res *imports.Result) {
	if res.Valid && !p.showValid {
		return
	}
	fr := cli.NewFileResult(res, p.messages)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		_ = json.NewEncoder(p.w).Encode(fr)
		return
	}
	switch {
	case fr.Valid:
		fmt.Fprintf(p.w, "OK    %s\n", fr.Source)
	case fr.Summary == nil:
		fmt.Fprintf(p.w, "ERROR %s: %s\n", fr.Source, fr.Message)
	default:
		fmt.Fprintf(p.w, "FAIL  %s: %s\n", fr.Source, fr.Message)
	}
}
