package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/efritz/redikit"
	"github.com/efritz/redikit/zaplog"
)

var (
	configFile string
	cacheName  string
	debug      bool

	logger   *zap.Logger
	registry *redikit.Registry
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               "redikit",
	Short:             "Inspect and maintain configured Redis caches",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

// Execute runs the root command and exits non-zero on failure. It is
// called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "redikit.yaml", "cache configuration file path")
	rootCmd.PersistentFlags().StringVar(&cacheName, "cache", "", "cache to operate on (default is the main cache)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if logger, err = newLogger(debug); err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	config, err := redikit.LoadConfig(configFile)
	if err != nil {
		return err
	}

	if registry, err = config.Build(redikit.WithLogger(zaplog.New(logger))); err != nil {
		return fmt.Errorf("failed to build caches: %w", err)
	}

	logger.Debug("caches configured", zap.Strings("caches", registry.Names()))
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if registry != nil {
		registry.Close()
	}

	if logger != nil {
		_ = logger.Sync()
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// selectedCache returns the cache named by --cache, or the main cache.
func selectedCache() (*redikit.Cache, error) {
	if cacheName == "" {
		cache, ok := registry.Main()
		if !ok {
			return nil, fmt.Errorf("%w: no main cache configured", redikit.ErrNotFound)
		}

		return cache, nil
	}

	cache, ok := registry.Lookup(cacheName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", redikit.ErrNotFound, cacheName)
	}

	return cache, nil
}
