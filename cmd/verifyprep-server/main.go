package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/verifyprep/internal/config"
	"github.com/pendergraft/verifyprep/internal/observability/metrics"
	"github.com/pendergraft/verifyprep/internal/server"
	"github.com/pendergraft/verifyprep/internal/storage"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "verifyprep-server",
		Short:   "verifyprep server - block explorer verification payloads for Ignition deployments",
		Version: version,
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDeploymentsCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newImportCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import [deployment-id...]",
		Short: "Copy deployments from a bucket into the SQL store",
		Long: `Copy Ignition deployments from a bucket into the configured SQL store.

Only the artifacts and build infos of successful deployments are copied.
Importing a deployment again replaces the stored copy. With no ids, every
deployment in the bucket is imported.

EXAMPLES:
  # Import everything under ./ignition/deployments into SQLite
  STORAGE_TYPE=sqlite verifyprep-server import --from file://./ignition/deployments

  # Import one deployment from S3 into Postgres
  DATABASE_URL=postgres://... verifyprep-server import chain-10 --from "s3://deploys?region=eu-west-1"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), from, args)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "bucket URL to read from (default: DEPLOYMENTS_URL)")

	return cmd
}

func newDeploymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "List deployments in the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeployments(cmd.Context())
		},
	}
}

func runImport(ctx context.Context, from string, ids []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Storage.Type == "blob" {
		return errors.New("import needs a SQL store: set STORAGE_TYPE to sqlite or postgres")
	}
	if from == "" {
		from = cfg.Storage.Blob.URL
	}

	logger := setupLogger(cfg)

	src, err := storage.OpenBlobStore(ctx, from, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer dst.Close()

	if err := dst.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	writer, ok := dst.(storage.SnapshotWriter)
	if !ok {
		return fmt.Errorf("storage type %s cannot be imported into", cfg.Storage.Type)
	}

	if len(ids) == 0 {
		summaries, err := src.ListDeployments(ctx)
		if err != nil {
			return fmt.Errorf("listing deployments: %w", err)
		}
		for _, s := range summaries {
			ids = append(ids, s.ID)
		}
	}

	for _, id := range ids {
		snap, err := src.Snapshot(ctx, id)
		if err != nil {
			return fmt.Errorf("reading %s: %w", id, err)
		}
		if err := writer.SaveSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("importing %s: %w", id, err)
		}
		fmt.Printf("✅ Imported %s (%d artifacts, %d build infos)\n", id, len(snap.Artifacts), len(snap.BuildInfos))
	}

	return nil
}

func runDeployments(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.New(ctx, cfg.Storage, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	summaries, err := store.ListDeployments(ctx)
	if err != nil {
		return fmt.Errorf("listing deployments: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No deployments found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHAIN\tRECORDS\tCONTRACTS\tCREATED")
	for _, s := range summaries {
		created := s.CreatedAt
		if created == "" {
			created = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", s.ID, s.ChainID, s.Records, s.Contracts, created)
	}
	return w.Flush()
}

// Server command

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg)
	logger.Info("starting verifyprep-server", "version", version, "storage", cfg.Storage.Type)

	metrics.Init(cfg.Metrics.Enabled, "verifyprep")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	srv, err := server.New(ctx, cfg, store, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
