package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/importcheck/pkg/cli"
	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/report/retention"
	"mercator-hq/importcheck/pkg/security/auth"
	tlsutil "mercator-hq/importcheck/pkg/security/tls"
	"mercator-hq/importcheck/pkg/server"
	"mercator-hq/importcheck/pkg/telemetry/health"
	"mercator-hq/importcheck/pkg/watch"
)

var serveFlags struct {
	listenAddress string
	watchPath     string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP server",
	Long: `Start the HTTP server exposing POST /api/v1/validate, the report API,
health probes and Prometheus metrics.

When storage is enabled every validation is recorded and the retention
pruner runs on its cron schedule. With --watch the server also validates
export files in a directory tree as they change.

Examples:
  # Start with the default config file
  importcheck serve

  # Override the listen address and watch a directory
  importcheck serve --listen 0.0.0.0:8080 --watch /srv/zabbix/exports

  # Check the configuration without starting
  importcheck serve --config /etc/importcheck/config.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.watchPath, "watch", "", "also watch this directory for changed exports")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.watchPath != "" {
		cfg.Watch.Path = serveFlags.watchPath
	}

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
		return nil
	}

	sink, err := a.openSink(false)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			a.logger.Error("failed to close report storage", "error", err)
		}
	}()

	service := a.newService(decoder.FormatAuto, sink.Recorder())

	opts := []server.Option{
		server.WithHealth(a.tel.Health, a.tel.Build),
		server.WithLocale(cfg.Validation.Locale),
		server.WithLogger(a.logger.With("component", "server")),
	}
	if config.BoolValue(cfg.Telemetry.Metrics.Enabled, config.DefaultMetricsEnabled) {
		opts = append(opts, server.WithMetrics(a.tel.Metrics, cfg.Telemetry.Metrics.Path))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if sink.store != nil {
		a.tel.Health.RegisterCheck("report_store", health.PingCheck(sink.store))
		opts = append(opts, server.WithStorage(sink.store))

		pruner := retention.NewPruner(sink.store, cfg.Retention,
			retention.WithMetrics(a.tel.Metrics),
			retention.WithLogger(a.logger),
		)
		if err := pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention pruner: %w", err)
		}
		defer pruner.Stop()
		if next := pruner.NextPruning(); next != nil {
			a.logger.Info("retention pruning scheduled", "next_run", next.Format(time.RFC3339))
		}
	}

	if cfg.Server.Auth.Enabled {
		authenticator, err := auth.NewAuthenticator(cfg.Server.Auth)
		if err != nil {
			return cli.NewConfigError("server.auth", err.Error())
		}
		a.logger.Info("API key authentication enabled", "clients", authenticator.Store().Names())
		opts = append(opts, server.WithAuth(authenticator))
	}

	if cfg.Server.TLS.Enabled {
		certs, err := tlsutil.NewCertificateReloader(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile,
			tlsutil.WithLogger(a.logger),
		)
		if err != nil {
			return cli.NewConfigError("server.tls", err.Error())
		}
		if err := certs.Start(ctx); err != nil {
			return err
		}
		defer certs.Close()
		a.tel.Health.RegisterCheck("tls_certificate", certs.Check)
		opts = append(opts, server.WithTLS(certs))
	}

	srv := server.New(&cfg.Server, service, opts...)

	g, gctx := errgroup.WithContext(ctx)
	if serveFlags.watchPath != "" {
		w, err := watch.New(watch.ConfigFrom(cfg), service,
			watch.WithMetrics(a.tel.Metrics),
			watch.WithLogger(a.logger),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Watch(gctx) })
	}
	g.Go(func() error {
		// Stop the watcher once the server has shut down.
		defer cancel()
		return srv.Start(gctx)
	})

	return g.Wait()
}
