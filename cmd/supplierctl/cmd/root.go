// Package cmd implements the supplierctl CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dropforge/supplier-bridge/internal/cj"
	"github.com/dropforge/supplier-bridge/internal/config"
	"github.com/dropforge/supplier-bridge/internal/settings"
	"github.com/dropforge/supplier-bridge/pkg/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "supplierctl",
		Short: "CLI client for the supplier bridge",
		Long: "supplierctl talks to the dropshipping supplier API through the\n" +
			"bridge's rate-limited client. It lets you connect an account,\n" +
			"search the catalog, and query stock and freight from the terminal.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, cj.ErrNotConfigured) {
			fmt.Fprintln(os.Stderr, "no supplier account connected; run 'supplierctl connect' first")
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default ./supplier-bridge.yaml)")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(disconnectCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(productCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(stockCmd())
	rootCmd.AddCommand(freightCmd())
	rootCmd.AddCommand(myProductsCmd())
}

func initConfig() {
	viper.SetEnvPrefix("SUPPLIER_BRIDGE")
	viper.AutomaticEnv()
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "supplier-bridge.yaml"
}

// app is the wired object graph behind every command: one gate, one
// transport, one token manager, shared by everything that talks to the
// supplier in this process.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	creds   *cj.CredentialStore
	tokens  *cj.TokenManager
	service *cj.Service

	cleanup func()
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	var (
		store   settings.Store
		cleanup func()
	)
	if cfg.Database.Enabled() {
		pg, err := settings.NewPostgresStore(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting settings database: %w", err)
		}
		if err := pg.Bootstrap(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("preparing settings schema: %w", err)
		}
		store = pg
		cleanup = pg.Close
	} else {
		log.Warn("no database configured; credentials will not persist across runs")
		store = settings.NewMemoryStore()
	}

	box, err := settings.NewSecretBox(cfg.Settings.Secret)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("initializing settings encryption: %w", err)
	}

	creds := cj.NewCredentialStore(settings.NewCached(store), box)

	gate := cj.NewGate(cfg.Supplier.RateLimit.MinInterval)
	transport := cj.NewTransport(cfg.Supplier.BaseURL, gate,
		cj.WithLogger(logger.Component(log, "transport")),
		cj.WithCallTimeout(cfg.Supplier.CallTimeout),
		cj.WithRetryPolicy(cfg.Supplier.Retry.MaxAttempts, cfg.Supplier.Retry.BaseBackoff),
		cj.WithNetworkRetry(cfg.Supplier.Retry.MaxAttempts, cfg.Supplier.Retry.NetworkDelay),
	)

	tokens := cj.NewTokenManager(creds, transport,
		cj.WithTokenLogger(logger.Component(log, "tokens")))
	client := cj.NewClient(transport, tokens)

	service := cj.NewService(client,
		cj.WithServiceLogger(logger.Component(log, "service")),
		cj.WithMyProductsPageSize(cfg.Supplier.MyProductsPage),
		cj.WithFreightRoutes(cfg.Supplier.Freight.StartCountry, cfg.Supplier.Freight.Destinations),
	)

	return &app{
		cfg:     cfg,
		logger:  log,
		creds:   creds,
		tokens:  tokens,
		service: service,
		cleanup: cleanup,
	}, nil
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
