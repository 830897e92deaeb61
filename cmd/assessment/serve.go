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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/api"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/config"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/delivery"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/mail"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/reload"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/report"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/services"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/storage"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Service settings come from the environment
(SMTP_HOST, GOOGLE_SHEET_ID, STORAGE_DRIVER, REDIS_ADDR, ...).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogger(cfg.Log.Level, cfg.Log.Format)
		cfg.Catalog.Dir = catalogDir(cfg)
		return runServe(cfg)
	},
}

// catalogDir prefers CATALOG_DIR and falls back to the --catalog-dir flag
func catalogDir(cfg *config.Config) string {
	if cfg.Catalog.Dir != "" {
		return cfg.Catalog.Dir
	}
	return viper.GetString("catalog-dir")
}

func runServe(cfg *config.Config) error {
	slog.Info("starting assessment service",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	shutdownTracing, err := telemetry.Setup(initCtx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	catalogDir := cfg.Catalog.Dir
	cat, err := loadCatalog(catalogDir)
	if err != nil {
		return err
	}

	registry := services.NewRegistry()
	deps, closers, err := buildDeps(initCtx, cfg, registry)
	if err != nil {
		return err
	}
	deps.Catalog = cat
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Error("close error", "error", err)
			}
		}
	}()

	orch, err := delivery.New(deps, delivery.WithEffectTimeout(cfg.Delivery.EffectTimeout))
	if err != nil {
		return err
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if catalogDir != "" && cfg.Catalog.ReloadInterval > 0 {
		reloader := reload.NewReloader(cat, catalogDir, cfg.Catalog.ReloadInterval)
		if _, err := reloader.Check(); err != nil {
			slog.Warn("initial catalog check failed", "error", err)
		}
		reloader.Start(ctx)
	}

	server := api.NewServer(cfg.Server, cat, orch, registry)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      otelhttp.NewHandler(server.Router(), "assessment-api"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}

	slog.Info("assessment service stopped")
	return nil
}

// buildDeps wires the mail, storage and dedupe sinks from cfg and registers their
// readiness checks. Unconfigured sinks are replaced by disabled ones.
func buildDeps(ctx context.Context, cfg *config.Config, registry *services.Registry) (delivery.Deps, []func() error, error) {
	var closers []func() error

	loc, err := time.LoadLocation(cfg.Mail.TimeZone)
	if err != nil {
		return delivery.Deps{}, nil, fmt.Errorf("invalid mail time zone %q: %w", cfg.Mail.TimeZone, err)
	}
	composer, err := mail.NewComposer(mail.ComposerConfig{
		ReplyTo:                cfg.Mail.ReplyTo,
		ConsultationReplyTo:    cfg.Mail.ConsultationReplyTo,
		InternalRecipients:     cfg.Mail.InternalRecipients,
		ConsultationRecipients: cfg.Mail.ConsultationRecipients,
		Location:               loc,
	})
	if err != nil {
		return delivery.Deps{}, nil, err
	}

	var sender mail.Sender = mail.Disabled{}
	smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Secure:   cfg.SMTP.Secure,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	switch {
	case errors.Is(err, mail.ErrDisabled):
		slog.Warn("SMTP_HOST not set, email delivery disabled")
	case err != nil:
		return delivery.Deps{}, nil, err
	default:
		sender = smtp
		registry.Register("smtp", services.NewCheckProvider(smtp.Name(), smtp.HealthCheck))
	}

	store := openStore(ctx, cfg)
	closers = append(closers, store.Close)
	if _, disabled := store.(storage.Disabled); !disabled {
		registry.Register("storage", services.NewCheckProvider(cfg.Storage.Driver, store.Ping))
	}

	var guard services.Guard = services.NewMemoryGuard(cfg.Redis.DedupeWindow)
	if cfg.Redis.Address != "" {
		rg, err := services.NewRedisGuard(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.DedupeWindow)
		if err != nil {
			slog.Warn("redis unavailable, using in-process dedupe guard", "address", cfg.Redis.Address, "error", err)
		} else {
			guard = rg
			registry.Register("redis", rg)
			closers = append(closers, rg.Close)
		}
	}

	return delivery.Deps{
		Composer: composer,
		Sender:   sender,
		Store:    store,
		Guard:    guard,
		Renderer: pdfRenderer(cfg.Report),
	}, closers, nil
}

// pdfRenderer builds the PDF renderer with the configured font files. Unreadable
// files are logged and the built-in font is used instead.
func pdfRenderer(cfg config.ReportConfig) *report.PDFRenderer {
	if cfg.FontPath == "" {
		return report.NewPDFRenderer()
	}
	for _, path := range []string{cfg.FontPath, cfg.BoldFontPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			slog.Warn("report font unavailable, using built-in font", "path", path, "error", err)
			return report.NewPDFRenderer()
		}
	}
	return report.NewPDFRenderer(report.WithUnicodeFont(cfg.FontPath, cfg.BoldFontPath))
}

// openStore opens the configured results ledger. A backend that is unconfigured or
// cannot be opened is logged and disabled rather than failing startup.
func openStore(ctx context.Context, cfg *config.Config) storage.Repository {
	var (
		store storage.Repository
		err   error
	)

	switch cfg.Storage.Driver {
	case config.StorageSheets:
		store, err = storage.NewSheetsRepository(ctx, storage.SheetsConfig{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			CredentialsJSON: cfg.Sheets.CredentialsJSON,
		})
	case config.StoragePostgres:
		store, err = storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:          cfg.Storage.DatabaseURL,
			MaxOpenConns: int32(cfg.Storage.MaxOpenConns),
			MaxIdleConns: int32(cfg.Storage.MaxIdleConns),
			MaxLifetime:  cfg.Storage.MaxLifetime,
		})
	case config.StorageSQLite:
		store, err = storage.NewSQLiteRepository(ctx, cfg.Storage.SQLitePath)
	case config.StorageMemory:
		store = storage.NewMemoryRepository()
	default:
		return storage.Disabled{Reason: "storage driver is none"}
	}

	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		slog.Warn("results ledger disabled", "driver", cfg.Storage.Driver, "reason", err)
		return storage.Disabled{Reason: err.Error()}
	case err != nil:
		slog.Error("failed to open results ledger, appends disabled", "driver", cfg.Storage.Driver, "error", err)
		return storage.Disabled{Reason: fmt.Sprintf("open %s storage: %v", cfg.Storage.Driver, err)}
	}
	return store
}
