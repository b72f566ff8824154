package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/importcheck/pkg/cli"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/report/export"
	"mercator-hq/importcheck/pkg/report/query"
	"mercator-hq/importcheck/pkg/report/retention"
)

var reportsFlags struct {
	source      string
	origin      string
	commit      string
	fingerprint string
	kind        string
	since       string
	until       string
	validOnly   bool
	invalidOnly bool
	limit       int
	offset      int
	sortBy      string
	sortOrder   string
	format      string
	output      string
	pretty      bool
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Query recorded validation reports",
	Long: `Query, export and prune validation reports recorded in the configured
report store.

Subcommands:
  list    - List reports matching filters
  get     - Show one report
  export  - Export reports as JSON or CSV
  prune   - Apply the retention policy now

Examples:
  # Failed validations of the last day
  importcheck reports list --invalid --since 24h

  # Every report for a commit as CSV
  importcheck reports export --commit 3f2a9c1 --format csv --output reports.csv`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports",
	Long: `List reports matching the given filters, newest first.

--since and --until accept an RFC3339 timestamp or a duration relative to
now (for example 24h).`,
	Args: cobra.NoArgs,
	RunE: listReports,
}

var reportsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one report",
	Args:  cobra.ExactArgs(1),
	RunE:  getReport,
}

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reports as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE:  exportReports,
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete reports outside the retention policy",
	Long: `Delete reports older than retention.retention_days and the oldest
reports beyond retention.max_records. Pruned reports are archived first when
retention.archive_before_delete is set.`,
	Args: cobra.NoArgs,
	RunE: pruneReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsGetCmd, reportsExportCmd, reportsPruneCmd)

	for _, c := range []*cobra.Command{reportsListCmd, reportsExportCmd} {
		f := c.Flags()
		f.StringVar(&reportsFlags.source, "source", "", "filter by source")
		f.StringVar(&reportsFlags.origin, "origin", "", "filter by origin (cli, http, watch, git)")
		f.StringVar(&reportsFlags.commit, "commit", "", "filter by commit SHA")
		f.StringVar(&reportsFlags.fingerprint, "fingerprint", "", "filter by failure fingerprint")
		f.StringVar(&reportsFlags.kind, "kind", "", "filter by violation kind")
		f.StringVar(&reportsFlags.since, "since", "", "only reports validated at or after (RFC3339 or duration)")
		f.StringVar(&reportsFlags.until, "until", "", "only reports validated at or before (RFC3339 or duration)")
		f.BoolVar(&reportsFlags.validOnly, "valid", false, "only valid documents")
		f.BoolVar(&reportsFlags.invalidOnly, "invalid", false, "only invalid documents")
		f.IntVar(&reportsFlags.limit, "limit", query.DefaultLimit, "maximum reports")
		f.IntVar(&reportsFlags.offset, "offset", 0, "reports to skip")
		f.StringVar(&reportsFlags.sortBy, "sort-by", query.DefaultSortBy, "sort column")
		f.StringVar(&reportsFlags.sortOrder, "sort-order", "desc", "asc or desc")
	}
	reportsListCmd.Flags().StringVarP(&reportsFlags.format, "format", "f", "text", "output format: text, json, csv")
	reportsGetCmd.Flags().StringVarP(&reportsFlags.format, "format", "f", "text", "output format: text, json")
	reportsExportCmd.Flags().StringVarP(&reportsFlags.format, "format", "f", "json", "export format: json, csv")
	reportsExportCmd.Flags().StringVarP(&reportsFlags.output, "output", "o", "", "output file (default stdout)")
	reportsExportCmd.Flags().BoolVar(&reportsFlags.pretty, "pretty", false, "indent JSON output")
}

// buildReportQuery turns the filter flags into a validated query.
func buildReportQuery(now time.Time) (*report.Query, error) {
	q := &report.Query{
		Source:      reportsFlags.source,
		Origin:      reportsFlags.origin,
		Commit:      reportsFlags.commit,
		Fingerprint: reportsFlags.fingerprint,
		Kind:        reportsFlags.kind,
		Limit:       reportsFlags.limit,
		Offset:      reportsFlags.offset,
		SortBy:      reportsFlags.sortBy,
		SortOrder:   reportsFlags.sortOrder,
	}

	switch {
	case reportsFlags.validOnly && reportsFlags.invalidOnly:
		return nil, cli.NewConfigError("valid", "--valid and --invalid are mutually exclusive")
	case reportsFlags.validOnly:
		v := true
		q.Valid = &v
	case reportsFlags.invalidOnly:
		v := false
		q.Valid = &v
	}

	var err error
	if q.StartTime, err = parseTimeFlag("since", reportsFlags.since, now); err != nil {
		return nil, err
	}
	if q.EndTime, err = parseTimeFlag("until", reportsFlags.until, now); err != nil {
		return nil, err
	}

	if err := query.Validate(q); err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	query.ApplyDefaults(q)
	return q, nil
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, cli.NewConfigError(name, fmt.Sprintf("invalid time %q (expected RFC3339 or a duration like 24h)", value))
	}
	t := now.Add(-d)
	return &t, nil
}

func listReports(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	q, err := buildReportQuery(time.Now())
	if err != nil {
		return err
	}

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	reports, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("reports", fmt.Errorf("query failed: %w", err))
	}
	total, err := store.Count(ctx, q)
	if err != nil {
		return cli.NewCommandError("reports", fmt.Errorf("count failed: %w", err))
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(reportsFlags.format) {
	case "text", "":
		return writeReportTable(out, reports, total)
	default:
		exp, err := export.New(reportsFlags.format, true)
		if err != nil {
			return cli.NewConfigError("format", err.Error())
		}
		return exp.Export(ctx, reports, out)
	}
}

func writeReportTable(w io.Writer, reports []*report.Report, total int64) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "No reports found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVALIDATED\tSOURCE\tORIGIN\tSTATUS\tKIND\tPATH")
	for _, r := range reports {
		status := "valid"
		if !r.Valid {
			status = "invalid"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.ValidatedAt.Local().Format(time.DateTime), r.Source, r.Origin,
			status, r.ViolationKind, r.ViolationPath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if int64(len(reports)) < total {
		fmt.Fprintf(w, "\nShowing %d of %d reports. Use --limit and --offset for pagination.\n", len(reports), total)
	}
	return nil
}

func getReport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("reports", err)
	}

	out := cmd.OutOrStdout()
	if strings.EqualFold(reportsFlags.format, "json") {
		return export.NewJSONExporter(true).Export(cmd.Context(), []*report.Report{r}, out)
	}

	fmt.Fprintf(out, "Report:      %s\n", r.ID)
	fmt.Fprintf(out, "Source:      %s (%s, %d bytes)\n", r.Source, r.Format, r.Size)
	if r.Version != "" {
		fmt.Fprintf(out, "Version:     %s\n", r.Version)
	}
	fmt.Fprintf(out, "Origin:      %s\n", r.Origin)
	if r.Commit != "" {
		fmt.Fprintf(out, "Commit:      %s\n", r.Commit)
	}
	fmt.Fprintf(out, "Validated:   %s (%s)\n", r.ValidatedAt.Format(time.RFC3339), r.Duration)
	if r.Digest != "" {
		fmt.Fprintf(out, "Digest:      %s\n", r.Digest)
	}
	if r.Valid {
		fmt.Fprintln(out, "Status:      valid")
	} else {
		fmt.Fprintln(out, "Status:      invalid")
		fmt.Fprintf(out, "Kind:        %s\n", r.ViolationKind)
		if r.ViolationPath != "" {
			fmt.Fprintf(out, "Path:        %s\n", r.ViolationPath)
		}
		if r.ViolationField != "" {
			fmt.Fprintf(out, "Field:       %s\n", r.ViolationField)
		}
		fmt.Fprintf(out, "Message:     %s\n", r.Message)
		fmt.Fprintf(out, "Fingerprint: %s\n", r.Fingerprint)
	}
	s := r.Summary
	fmt.Fprintf(out, "Objects:     %d groups, %d hosts, %d templates, %d items, %d triggers, %d graphs, %d screens, %d images, %d discovery rules\n",
		s.Groups, s.Hosts, s.Templates, s.Items, s.Triggers, s.Graphs, s.Screens, s.Images, s.DiscoveryRules)
	return nil
}

func exportReports(cmd *cobra.Command, args []string) error {
	exp, err := export.New(reportsFlags.format, reportsFlags.pretty)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	q, err := buildReportQuery(time.Now())
	if err != nil {
		return err
	}

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("reports", fmt.Errorf("query failed: %w", err))
	}

	out := cmd.OutOrStdout()
	if reportsFlags.output != "" {
		f, err := os.Create(reportsFlags.output)
		if err != nil {
			return cli.NewCommandError("reports", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	if err := exp.Export(cmd.Context(), reports, out); err != nil {
		return cli.NewCommandError("reports", err)
	}
	if reportsFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d reports to %s\n", len(reports), reportsFlags.output)
	}
	return nil
}

func pruneReports(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	pruner := retention.NewPruner(store, a.cfg.Retention,
		retention.WithMetrics(a.tel.Metrics),
		retention.WithLogger(a.logger),
	)
	n, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("reports", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d reports\n", n)
	return nil
}
