package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abiral/chessfeed/internal/builder"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the topics in the rotation",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range builder.DefaultTopics {
			fmt.Println(t)
		}
	},
}
