package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/importcheck/pkg/cli"
	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/imports/validator"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/report/recorder"
	"mercator-hq/importcheck/pkg/report/storage"
	"mercator-hq/importcheck/pkg/telemetry"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "importcheck",
	Short: "importcheck - Zabbix 2.0 import schema validator",
	Long: `importcheck validates Zabbix 2.0 configuration exports before they are
imported. It checks every host, template, item, trigger, graph, screen, image
and discovery rule against the import schema and reports the first
violation the same way a Zabbix 2.0 server would:

  Cannot parse XML tag "/hosts/host(1)/items/item(1)": the tag "key" is missing.

Exports can be XML, JSON or YAML. Results can be stored as reports in SQLite
and queried later.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	ctx, cancel := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		var failed *cli.ValidationFailedError
		if !errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "importcheck.yaml", "config file path (optional unless set explicitly)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// app carries what every command needs after configuration is loaded.
type app struct {
	cfg    *config.Config
	tel    *telemetry.Telemetry
	logger *slog.Logger
}

// setup loads the configuration and initializes telemetry. Logs go to the
// command's stderr so formatted results on stdout stay clean.
func setup(cmd *cobra.Command) (*app, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Load(cfgFile, !explicit)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	level := logLevel
	if level == "" && verbose {
		level = "debug"
	}

	tel, err := telemetry.New(cmd.Context(), cfg.Telemetry, buildInfo(),
		telemetry.WithLogWriter(cmd.ErrOrStderr()),
		telemetry.WithLogLevel(level),
	)
	if err != nil {
		return nil, cli.NewConfigError("telemetry", err.Error())
	}

	logger := tel.Logger.Slog()
	slog.SetDefault(logger)
	config.SetConfig(cfg)

	logger.Debug("configuration loaded", "path", cfgFile, "explicit", explicit)
	return &app{cfg: cfg, tel: tel, logger: logger}, nil
}

// close flushes pending spans.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// newService builds the validation service. A non-auto format forces the
// decoder; rec may be nil.
func (a *app) newService(format decoder.Format, rec imports.Recorder) *imports.Service {
	dec := decoder.NewDecoder().WithMaxFileSize(a.cfg.Validation.MaxFileSize)
	if format == decoder.FormatAuto {
		// Validated by config.Validate.
		format, _ = decoder.ParseFormat(a.cfg.Validation.DefaultFormat)
	}
	if format != decoder.FormatAuto {
		dec = dec.WithFormat(format)
	}

	opts := []imports.ServiceOption{
		imports.WithDecoder(dec),
		imports.WithValidator(validator.NewValidator(
			validator.WithLogger(a.logger),
			validator.WithSuggestions(config.BoolValue(a.cfg.Validation.Suggestions, config.DefaultSuggestions)),
		)),
		imports.WithTracer(a.tel.Tracer),
		imports.WithMetrics(a.tel.Metrics),
		imports.WithLogger(a.logger.With("component", "imports.service")),
	}
	if rec != nil {
		opts = append(opts, imports.WithRecorder(rec))
	}
	return imports.NewService(opts...)
}

// openStorage opens the configured report store.
func (a *app) openStorage() (report.Storage, error) {
	store, err := storage.New(a.cfg.Storage)
	if err != nil {
		return nil, cli.NewCommandError("storage", err)
	}
	return store, nil
}

// newRecorder starts a report recorder on store.
func (a *app) newRecorder(store report.Storage) *recorder.Recorder {
	return recorder.NewRecorder(store,
		&recorder.Config{
			AsyncBuffer:  a.cfg.Storage.BufferSize,
			WriteTimeout: a.cfg.Storage.WriteTimeout,
			Locale:       a.cfg.Validation.Locale,
		},
		recorder.WithMetrics(a.tel.Metrics, a.cfg.Storage.Backend),
		recorder.WithLogger(a.logger),
	)
}

// reportSink is an optional store plus recorder pair for commands that record
// results when storage is enabled.
type reportSink struct {
	store    report.Storage
	recorder *recorder.Recorder
}

// openSink opens storage when enabled (or forced) and returns a sink whose
// Recorder is nil otherwise.
func (a *app) openSink(force bool) (*reportSink, error) {
	if !force && !a.cfg.Storage.Enabled {
		return &reportSink{}, nil
	}
	store, err := a.openStorage()
	if err != nil {
		return nil, err
	}
	return &reportSink{store: store, recorder: a.newRecorder(store)}, nil
}

// Recorder returns the sink as an imports.Recorder, or nil.
func (s *reportSink) Recorder() imports.Recorder {
	if s.recorder == nil {
		return nil
	}
	return s.recorder
}

// Close drains the recorder before closing the store.
func (s *reportSink) Close() error {
	var errs []error
	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
