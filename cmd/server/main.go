package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JeanGrijp/cardguard/internal/adapters/capabilities/headless"
	httpMiddleware "github.com/JeanGrijp/cardguard/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cardguard/internal/adapters/http/router"
	"github.com/JeanGrijp/cardguard/internal/adapters/storage/memory"
	redisstorage "github.com/JeanGrijp/cardguard/internal/adapters/storage/redis"
	sqlitestorage "github.com/JeanGrijp/cardguard/internal/adapters/storage/sqlite"
	"github.com/JeanGrijp/cardguard/internal/config"
	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
	"github.com/JeanGrijp/cardguard/internal/core/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cardguard",
		Short:        "Protection layer for the profile card application",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSanitizeCmd(), newEscapeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the protection API and, optionally, the application bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newSanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [text...]",
		Short: "Sanitize text from the arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), domain.Sanitize(text))
			return err
		},
	}
}

func newEscapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escape [text...]",
		Short: "Escape markup characters in text from the arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			escaped, err := headless.Markup{}.EscapeText(text)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), escaped)
			return err
		},
	}
}

func inputText(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Log.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	zl := setupLogger(cfg.Log.Debug, level)
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	storage, closeFn, err := initStorage(parent, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer closeFn()

	svc, err := services.Shared(services.Config{
		Mode:        cfg.Mode,
		Guards:      cfg.Guards,
		DefaultRule: cfg.RateLimiter.DefaultRule,
	}, services.Dependencies{
		Storage:      storage,
		Capabilities: headless.Capabilities(level),
		Logger:       log.Named("protection"),
	})
	if err != nil {
		return fmt.Errorf("failed to create protection service: %w", err)
	}
	for _, report := range svc.InstallGuards() {
		log.Debugw("Guard status", "guard", report.Guard, "status", report.Status, "reason", report.Reason)
	}

	handler := router.New(svc, router.Options{
		Mode:   cfg.Mode,
		Guards: cfg.Guards,
		Limits: httpMiddleware.RateLimiterConfig{
			Rule:   cfg.RateLimiter.DefaultRule,
			Routes: cfg.RateLimiter.RouteRules,
		},
		StaticDir: cfg.Server.StaticDir,
		Logger:    log.Named("http"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.StartCleanup(ctx, cfg.RateLimiter.CleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Warnw("Starting cardguard server", "addr", srv.Addr, "mode", cfg.Mode, "storage", cfg.Storage.Type)
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Warn("Shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}
	return nil
}

func setupLogger(debug bool, level zap.AtomicLevel) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}

func initStorage(ctx context.Context, cfg config.StorageConfig, log *zap.SugaredLogger) (ports.Storage, func(), error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), func() {}, nil
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		storage, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				log.Warnw("Failed to close redis storage", "error", err)
			}
		}, nil
	case "sqlite":
		storage, err := sqlitestorage.New(ctx, sqlitestorage.Config{Path: cfg.SQLite.Path})
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				log.Warnw("Failed to close sqlite storage", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
