/*
Package cli holds the terminal side of the importcheck commands: result
formatting, the batch progress bar, signal-aware contexts and exit codes.

Output Formatting:

Validation outcomes print as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON, verbose)
	outcome := cli.NewOutcome(results, messages.NewPrinter(cfg.Validation.Locale))
	if err := formatter.FormatTo(os.Stdout, outcome); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(len(paths))
	runner := batch.NewRunner(service, batch.WithProgress(progress.Func()))
	results, err := runner.Run(ctx, paths)
	progress.Finish()

Exit Codes:

ExitCode maps a command error to 0 (all valid), 1 (a file failed) or 2
(usage, configuration or runtime error).
*/
package cli
