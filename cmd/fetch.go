package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abiral/chessfeed/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <topic>",
	Short: "Fetch records for one topic and print them (no database)",
	Long: `Run a single search-and-extract pass for a topic and dump the results.

This is a stateless developer tool for checking what the extractor pulls
out of live pages. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		limit, _ := cmd.Flags().GetInt("count")
		cfg := resolveConfig(cmd)

		log, _ := zap.NewDevelopment()
		client := fetch.NewClient(fetch.Config{
			Timeout: cfg.FetchTimeout,
			Logger:  log,
		})

		records, err := client.FetchTopic(cmd.Context(), topic, topic, limit)
		if err != nil {
			return fmt.Errorf("fetch %q: %w", topic, err)
		}
		if len(records) == 0 {
			fmt.Println("No usable pages found.")
			return nil
		}

		for i, r := range records {
			fmt.Printf("--- %d/%d  %s\n", i+1, len(records), r.Title)
			fmt.Printf("    %s\n", r.URL)
			fmt.Printf("    %d excerpts, %d images\n", len(r.Excerpts), len(r.Images))
			if len(r.Excerpts) > 0 {
				fmt.Printf("    %s\n", truncate(r.Excerpts[0], 120))
			}
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("count", 3, "Number of records to fetch")
}
