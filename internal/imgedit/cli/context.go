package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// GetContext returns the invocation context, bounded by the named timeout
// from the user config.
func GetContext(cmd *cobra.Command, timeout string) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.GetTimeout(timeout))
}
