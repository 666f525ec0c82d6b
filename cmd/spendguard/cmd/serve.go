package cmd

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

	"github.com/gyaneshwarpardhi/spendguard/internal/action"
	"github.com/gyaneshwarpardhi/spendguard/internal/api"
	"github.com/gyaneshwarpardhi/spendguard/internal/config"
	"github.com/gyaneshwarpardhi/spendguard/internal/engine"
	"github.com/gyaneshwarpardhi/spendguard/internal/ledger"
	"github.com/gyaneshwarpardhi/spendguard/internal/ledger/pgstore"
	"github.com/gyaneshwarpardhi/spendguard/internal/ledger/sqlstore"
	"github.com/gyaneshwarpardhi/spendguard/internal/policy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides listen_addr)")
	serveCmd.Flags().String("policy", "", "path to the policy YAML (overrides policy_path)")
	_ = viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("policy_path", serveCmd.Flags().Lookup("policy"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: settings.SlogLevel()}))
	slog.SetDefault(logger)

	// ── Load policy ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(settings.PolicyPath)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	p, err := policy.Build(loader.Config(), nil)
	if err != nil {
		return fmt.Errorf("build policy: %w", err)
	}
	slog.Info("policy loaded",
		"path", settings.PolicyPath, "version", p.Version(), "fingerprint", p.Fingerprint(),
		"rules", len(p.Rules()), "accounts", len(p.Accounts()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Spending ledger ──────────────────────────────────────────────────────
	store, err := openStore(ctx, settings.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("ledger opened", "driver", settings.Store.Driver)

	// ── Engine ───────────────────────────────────────────────────────────────
	eng, err := engine.New(ctx, p, action.NewDefaultRegistry(), store)
	if err != nil {
		return err
	}

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(cfg *config.PolicyConfig) error {
		if err := eng.ApplyConfig(cfg); err != nil {
			return err
		}
		p := eng.Policy()
		slog.Info("policy hot-reloaded", "version", p.Version(), "fingerprint", p.Fingerprint())
		return nil
	})
	if settings.Watch {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("policy watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         settings.ListenAddr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", settings.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errC:
		eng.Shutdown()
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	slog.Info("goodbye")
	return nil
}

func openStore(ctx context.Context, s config.StoreSettings) (ledger.Store, error) {
	switch s.Driver {
	case "sqlite":
		st, err := sqlstore.OpenSQLite(s.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := pgstore.OpenPostgres(ctx, s.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		return st, nil
	}
	return ledger.NewInMemoryStore(), nil
}
