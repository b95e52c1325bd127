package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// getCmd prints a single value
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value and TTL of a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cache, err := selectedCache()
	if err != nil {
		return err
	}

	var (
		key   = args[0]
		value string
		ok    bool
		ttl   int64
	)

	err = cache.Batch(cmd.Context(), func(ctx context.Context) (err error) {
		if value, ok, err = cache.Get(ctx, key); err != nil || !ok {
			return err
		}

		ttl, err = cache.TTL(ctx, key)
		return err
	})

	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "(nil)")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s bytes, ttl %s)\n", value, humanize.Comma(int64(len(value))), formatTTL(ttl))
	return nil
}

func formatTTL(seconds int64) string {
	if seconds < 0 {
		return "none"
	}

	return humanize.Comma(seconds) + "s"
}
