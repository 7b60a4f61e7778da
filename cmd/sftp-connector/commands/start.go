package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hardikhari96/sftp-cloud-connector/internal/config"
	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/metrics"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/sftpd"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the SFTP server",
	Long: `Start the SFTP server with the configured endpoints.

The process runs in the foreground until SIGINT or SIGTERM, then shuts down
gracefully: the listeners stop accepting, live sessions are closed and their
connection records finalized.

Examples:
  # Start with the default config location
  sftp-connector start

  # Start with a custom config file
  sftp-connector start --config /etc/sftp-connector/config.yaml

  # Override settings from the environment
  SFTPC_SFTP_PORT=2200 SFTPC_LOGGING_LEVEL=DEBUG sftp-connector start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	created, err := store.EnsureDefaultAdmin(ctx, st, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		logger.Warn("created default admin user, change its password",
			"username", cfg.Admin.Username)
	}

	m := metrics.New()
	tracker := sftpd.NewTracker()

	sftpServer, err := sftpd.New(cfg.SFTP, st, m, tracker)
	if err != nil {
		return fmt.Errorf("failed to create SFTP server: %w", err)
	}

	if admin, err := st.FindUserByUsername(ctx, cfg.Admin.Username); err == nil {
		if _, err := sftpd.ResolveHome(cfg.SFTP.Root, admin.HomeDir); err != nil {
			logger.Warn("failed to create admin home directory", "home", admin.HomeDir, "error", err)
		}
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("SFTP endpoint listening", "addr", cfg.SFTP.Addr(), "root", cfg.SFTP.Root)
		return sftpServer.Run(ctx)
	})

	if cfg.API.Enabled {
		cfg.API.HomeRoot = cfg.SFTP.Root
		apiServer, err := api.NewServer(cfg.API, st, tracker)
		if err != nil {
			return fmt.Errorf("failed to create admin API: %w", err)
		}
		group.Go(func() error {
			return apiServer.Run(ctx, cfg.ShutdownTimeout)
		})
	}

	if cfg.Metrics.Enabled {
		group.Go(func() error {
			return runMetricsServer(ctx, cfg.Metrics.Addr(), m, cfg.ShutdownTimeout)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// runMetricsServer serves the Prometheus endpoint until ctx is cancelled.
func runMetricsServer(ctx context.Context, addr string, m *metrics.Metrics, shutdownTimeout time.Duration) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	return <-errCh
}
