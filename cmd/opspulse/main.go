// OpsPulse - operational intelligence from the user-action event log.
// Aggregates usage statistics, reconstructs business-process cycles and
// ranks improvement recommendations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opspulse/opspulse/pkg/config"
	"github.com/opspulse/opspulse/pkg/dashboard"
	"github.com/opspulse/opspulse/pkg/mining"
	"github.com/opspulse/opspulse/pkg/store"
	"github.com/opspulse/opspulse/pkg/telemetry"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var cfgManager = config.NewManager()

func main() {
	if err := cfgManager.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "opspulse",
	Short: "OpsPulse - usage analytics and process mining for the action log",
	Long: `OpsPulse turns the append-only log of user actions into usage statistics,
reconstructed business-process cycle metrics and ranked improvement
recommendations.

Run "opspulse dashboard" for a terminal report, or "opspulse serve" for the
HTTP API.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

// openStore builds the configured event store backend.
func openStore(ctx context.Context) (store.EventStore, func(), error) {
	cfg := cfgManager.Get()
	noop := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		return store.NewMemoryStoreWithRetention(cfg.Storage.Retention), noop, nil

	case "redis":
		rcfg := store.DefaultRedisConfig(cfg.Storage.Redis.Address)
		rcfg.Password = cfg.Storage.Redis.Password
		rcfg.Database = cfg.Storage.Redis.Database
		if cfg.Storage.Redis.Key != "" {
			rcfg.Key = cfg.Storage.Redis.Key
		}
		rcfg.Retention = cfg.Storage.Retention
		s, err := store.NewRedisStore(ctx, rcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return s, func() { s.Close() }, nil

	case "duckdb":
		s, err := store.NewDuckDBStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	case "file", "":
		s, err := store.NewFileStoreWithRetention(cfg.Storage.Path, cfg.Storage.Retention)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return s, noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// loadCatalogue resolves the process catalogue from config.
func loadCatalogue() ([]mining.ProcessDefinition, error) {
	path := cfgManager.Get().Catalogue.Path
	if path == "" {
		return mining.DefaultCatalogue(), nil
	}
	return mining.LoadCatalogue(path)
}

// newBuilder assembles a dashboard builder from config.
func newBuilder(eventStore store.EventStore) (*dashboard.Builder, error) {
	catalogue, err := loadCatalogue()
	if err != nil {
		return nil, err
	}
	return dashboard.NewBuilder(eventStore, catalogue), nil
}

// initTelemetry starts OTLP export when enabled. Returns a shutdown func.
func initTelemetry(ctx context.Context) func(context.Context) error {
	cfg := cfgManager.Get()
	if !cfg.Telemetry.IsEnabled() {
		return func(context.Context) error { return nil }
	}

	otlpCfg := telemetry.DefaultOTLPConfig("opspulse")
	if cfg.Telemetry.Endpoint != "" {
		otlpCfg.Endpoint = cfg.Telemetry.Endpoint
	}
	shutdown, err := telemetry.NewOTLPExporter(otlpCfg).Init(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "telemetry disabled:", err)
		return func(context.Context) error { return nil }
	}
	return shutdown
}
