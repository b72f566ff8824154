package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/importcheck/pkg/cli"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/imports/messages"
	"mercator-hq/importcheck/pkg/source/git"
)

var syncFlags struct {
	repository  string
	branch      string
	localPath   string
	subdir      string
	changedOnly bool
	output      string
	lang        string
	token       string
	progress    bool
	record      bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or pull an export repository and validate it",
	Long: `Clone (or pull) a git repository of Zabbix exports and validate its
export files. Reports are stamped with the HEAD commit SHA.

The first run clones into git.local_path; later runs pull. With
--changed-only only files touched by the pull are validated.

Examples:
  # Validate every export of a repository
  importcheck sync --repo https://git.example.com/ops/zabbix-exports.git

  # Only exports under zabbix/ that changed since the last sync
  importcheck sync --subdir zabbix --changed-only`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFlags.repository, "repo", "", "repository URL (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.branch, "branch", "", "branch (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.localPath, "local-path", "", "clone directory (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.subdir, "subdir", "", "directory inside the repository holding exports")
	syncCmd.Flags().BoolVar(&syncFlags.changedOnly, "changed-only", false, "validate only files changed by the pull")
	syncCmd.Flags().StringVarP(&syncFlags.output, "output", "o", "text", "output format: text, json, csv")
	syncCmd.Flags().StringVar(&syncFlags.lang, "lang", "", "message language (default from config)")
	syncCmd.Flags().StringVar(&syncFlags.token, "token", "", "access token for HTTPS repositories (prefer IMPORTCHECK_GIT_AUTH_TOKEN)")
	syncCmd.Flags().BoolVar(&syncFlags.progress, "progress", false, "show a progress bar on stderr")
	syncCmd.Flags().BoolVar(&syncFlags.record, "record", false, "record reports even when storage is disabled in config")
}

func runSync(cmd *cobra.Command, args []string) error {
	output, err := cli.ParseOutputFormat(syncFlags.output)
	if err != nil {
		return err
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	gitCfg := a.cfg.Git
	if syncFlags.repository != "" {
		gitCfg.Repository = syncFlags.repository
	}
	if syncFlags.branch != "" {
		gitCfg.Branch = syncFlags.branch
	}
	if syncFlags.localPath != "" {
		gitCfg.LocalPath = syncFlags.localPath
	}
	if syncFlags.subdir != "" {
		gitCfg.Subdir = syncFlags.subdir
	}
	if syncFlags.token != "" {
		gitCfg.Auth.Type = "token"
		gitCfg.Auth.Token = syncFlags.token
	}
	if gitCfg.Repository == "" {
		return cli.NewConfigError("git.repository", "a repository URL is required (--repo or git.repository)")
	}

	repo, err := git.NewRepository(gitCfg)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}

	sink, err := a.openSink(syncFlags.record)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			a.logger.Error("failed to close report storage", "error", err)
		}
	}()

	service := a.newService(decoder.FormatAuto, sink.Recorder())

	opts := git.SyncOptions{
		ChangedOnly: syncFlags.changedOnly,
		Extensions:  a.cfg.Validation.Extensions,
		Concurrency: a.cfg.Validation.Concurrency,
	}
	var progress *cli.SimpleProgress
	if syncFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		opts.Progress = func(done, total int, res *imports.Result) {
			if done == 1 {
				progress.Start(total)
			}
			progress.Update(done, res)
		}
	}

	res, err := git.Sync(cmd.Context(), repo, service, opts)
	if progress != nil && err == nil && len(res.Files) > 0 {
		progress.Finish()
	}
	if err != nil {
		return cli.NewCommandError("sync", err)
	}

	out := cmd.OutOrStdout()
	if output == cli.FormatText {
		fmt.Fprintf(out, "Commit %s on %s by %s\n", shortSHA(res.Commit.SHA), res.Commit.Branch, res.Commit.Author)
		if res.Pull != nil && !res.Pull.HadChanges && syncFlags.changedOnly {
			fmt.Fprintln(out, "No changes since the last sync")
		}
	}

	lang := syncFlags.lang
	if lang == "" {
		lang = a.cfg.Validation.Locale
	}
	outcome := cli.NewOutcome(res.Results, messages.NewPrinter(lang))
	if err := cli.NewFormatter(output, verbose).FormatTo(out, outcome); err != nil {
		return cli.NewCommandError("sync", err)
	}

	if !outcome.Totals.OK() {
		return &cli.ValidationFailedError{Invalid: outcome.Totals.Invalid, Errors: outcome.Totals.Errors}
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
