package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cleanCount int

// cleanCmd deletes keys by pattern
var cleanCmd = &cobra.Command{
	Use:   "clean <pattern>",
	Short: "Delete every key matching a pattern",
	Long:  `Walk the keyspace with SCAN and delete every key matching the pattern. The pattern "*" is refused.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().IntVar(&cleanCount, "count", 0, "SCAN page size hint")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cache, err := selectedCache()
	if err != nil {
		return err
	}

	deleted, err := cache.Clean(cmd.Context(), args[0], cleanCount)
	if err != nil {
		return err
	}

	logger.Info("clean finished", zap.String("cache", cache.Name()), zap.String("pattern", args[0]), zap.Int64("deleted", deleted))
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s keys matching %q from %s\n", humanize.Comma(deleted), args[0], cache.Name())
	return nil
}
