package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abiral/chessfeed/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show viewing statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := resolveConfig(cmd)

		dbPath := cfg.DBPath
		if dbPath == "" {
			var err error
			dbPath, err = store.DefaultDBPath()
			if err != nil {
				return fmt.Errorf("resolve DB path: %w", err)
			}
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		totals, err := st.SessionRepo().Totals(ctx)
		if err != nil {
			return fmt.Errorf("load totals: %w", err)
		}
		records, err := st.RecordRepo().Count(ctx)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}

		fmt.Println("All-time totals")
		fmt.Printf("  sessions           %d\n", totals.Sessions)
		fmt.Printf("  slides shown       %d\n", totals.SlidesShown)
		fmt.Printf("  lessons completed  %d\n", totals.LessonsCompleted)
		fmt.Printf("  lessons built      %d\n", totals.LessonsBuilt)
		fmt.Printf("  records fetched    %d\n", totals.RecordsFetched)
		fmt.Printf("  topics searched    %d\n", totals.TopicsSearched)
		fmt.Printf("  records cached     %d\n", records)

		lessons, err := st.LessonRepo().Recent(ctx, 10)
		if err != nil {
			return fmt.Errorf("load recent lessons: %w", err)
		}
		if len(lessons) > 0 {
			fmt.Println("\nRecent lessons")
			for _, l := range lessons {
				status := "pending"
				if l.CompletedAt != nil {
					status = "completed"
				}
				fmt.Printf("  %-30s %2d slides  %s\n", truncate(l.Title, 30), l.SlideCount, status)
			}
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
