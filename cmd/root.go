package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abiral/chessfeed/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "chessfeed",
	Short: "Endless chess lessons in your terminal",
	Long:  "Chessfeed — a terminal player that gathers chess articles from the web and streams them back as paced lesson slides, forever.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	// A .env file in the working directory can supply CHESSFEED_* vars.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CHESSFEED_DB env var)")
	rootCmd.PersistentFlags().String("data", "", "Directory for downloaded assets (overrides CHESSFEED_DATA env var)")
	rootCmd.Flags().Int("speed", 0, "Initial playback speed, 1-200 (overrides CHESSFEED_SPEED env var)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfig layers flag values over env vars over defaults.
func resolveConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if p, _ := cmd.Flags().GetString("data"); p != "" {
		cfg.DataDir = p
	}
	if n, _ := cmd.Flags().GetInt("speed"); n > 0 {
		cfg.Speed = n
	}
	return cfg
}
