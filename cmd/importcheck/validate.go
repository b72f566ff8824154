package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"mercator-hq/importcheck/pkg/batch"
	"mercator-hq/importcheck/pkg/cli"
	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/decoder"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
	"mercator-hq/importcheck/pkg/imports/messages"
)

var validateFlags struct {
	format      string
	output      string
	lang        string
	source      string
	concurrency int
	progress    bool
	record      bool
}

var validateCmd = &cobra.Command{
	Use:   "validate [file|dir|-]...",
	Short: "Validate Zabbix export files",
	Long: `Validate Zabbix 2.0 export files against the import schema.

Directories are walked recursively for files with the configured extensions
(.xml, .json, .yaml, .yml by default); hidden files are skipped. Use "-" to
read one document from stdin. Each file is validated independently and the
first violation of each file is reported.

Exit status is 0 when every file is valid and 1 otherwise.

Examples:
  # Validate a file
  importcheck validate hosts.xml

  # Validate a directory with 8 workers and a progress bar
  importcheck validate --concurrency 8 --progress exports/

  # Validate stdin as YAML and print JSON
  cat export.yaml | importcheck validate --format yaml --output json -

  # German messages, record reports in the configured database
  importcheck validate --lang de --record exports/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "", "document format: auto, xml, json, yaml (default from config)")
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json, csv")
	validateCmd.Flags().StringVar(&validateFlags.lang, "lang", "", "message language (default from config)")
	validateCmd.Flags().StringVar(&validateFlags.source, "source", "stdin", "source label for a document read from stdin")
	validateCmd.Flags().IntVar(&validateFlags.concurrency, "concurrency", 0, "files validated in parallel (default from config)")
	validateCmd.Flags().BoolVar(&validateFlags.progress, "progress", false, "show a progress bar on stderr")
	validateCmd.Flags().BoolVar(&validateFlags.record, "record", false, "record reports even when storage is disabled in config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	output, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}
	format, err := decoder.ParseFormat(validateFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sink, err := a.openSink(validateFlags.record)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			a.logger.Error("failed to close report storage", "error", err)
		}
	}()

	service := a.newService(format, sink.Recorder())

	var results []*imports.Result
	if len(args) == 1 && args[0] == "-" {
		results, err = validateStdin(cmd, service)
	} else {
		results, err = validatePaths(cmd, a.cfg, service, args)
	}
	if err != nil {
		return err
	}

	lang := validateFlags.lang
	if lang == "" {
		lang = a.cfg.Validation.Locale
	}
	outcome := cli.NewOutcome(results, messages.NewPrinter(lang))

	out := cmd.OutOrStdout()
	if err := cli.NewFormatter(output, verbose).FormatTo(out, outcome); err != nil {
		return cli.NewCommandError("validate", err)
	}
	if output == cli.FormatText && verbose {
		if err := printKinds(out, results); err != nil {
			return cli.NewCommandError("validate", err)
		}
	}

	if !outcome.Totals.OK() {
		return &cli.ValidationFailedError{Invalid: outcome.Totals.Invalid, Errors: outcome.Totals.Errors}
	}
	return nil
}

func validateStdin(cmd *cobra.Command, service *imports.Service) ([]*imports.Result, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, cli.NewCommandError("validate", fmt.Errorf("failed to read stdin: %w", err))
	}

	res, err := service.Validate(cmd.Context(), imports.Input{
		Source: validateFlags.source,
		Data:   data,
		Origin: imports.OriginCLI,
	})
	if err != nil {
		return nil, cli.NewCommandError("validate", err)
	}
	return []*imports.Result{res}, nil
}

func validatePaths(cmd *cobra.Command, cfg *config.Config, service *imports.Service, args []string) ([]*imports.Result, error) {
	paths, err := batch.Expand(args, batch.ExpandOptions{
		Extensions: cfg.Validation.Extensions,
		SkipHidden: true,
	})
	if err != nil {
		return nil, cli.NewCommandError("validate", err)
	}
	if len(paths) == 0 {
		return nil, cli.NewCommandError("validate", fmt.Errorf("no export files found in %v", args))
	}

	concurrency := validateFlags.concurrency
	if concurrency == 0 {
		concurrency = cfg.Validation.Concurrency
	}
	opts := []batch.Option{
		batch.WithConcurrency(concurrency),
		batch.WithOrigin(imports.OriginCLI),
	}

	var progress *cli.SimpleProgress
	if validateFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		progress.Start(len(paths))
		opts = append(opts, batch.WithProgress(progress.Func()))
	}

	results, err := batch.NewRunner(service, opts...).Run(cmd.Context(), paths)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return nil, cli.NewCommandError("validate", err)
	}
	return results, nil
}

// printKinds prints how many files failed with each violation kind.
func printKinds(w io.Writer, results []*imports.Result) error {
	list := importErrors.NewErrorList()
	for _, r := range results {
		list.Add(r.Violation)
	}
	if !list.HasErrors() {
		return nil
	}

	counts := make(map[importErrors.Kind]int)
	for _, v := range list.Errors {
		counts[v.Kind] = len(list.ByKind(v.Kind))
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	if _, err := fmt.Fprintln(w, "Violations by kind:"); err != nil {
		return err
	}
	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "  %-22s %d\n", k, counts[importErrors.Kind(k)]); err != nil {
			return err
		}
	}
	return nil
}
