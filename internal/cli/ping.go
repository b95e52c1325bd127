package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pingTimeout time.Duration

// pingCmd checks every configured cache
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping every configured cache",
	RunE:  runPing,
}

func init() {
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", time.Second*5, "timeout per cache")
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, name := range registry.Names() {
		cache, ok := registry.Lookup(name)
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		start := time.Now()
		err := cache.Ping(ctx)
		cancel()

		if err != nil {
			failed++
			logger.Error("ping failed", zap.String("cache", name), zap.Error(err))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tFAIL\t%s\n", name, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\tOK\t%s\n", name, time.Since(start).Round(time.Microsecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d caches did not respond", failed, len(registry.Names()))
	}

	return nil
}
