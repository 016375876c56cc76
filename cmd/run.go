package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abiral/chessfeed/internal/app"
)

// runApp resolves configuration and launches the TUI pipeline.
func runApp(cmd *cobra.Command) error {
	return app.Run(resolveConfig(cmd))
}
