package main

import (
	"os"

	"github.com/abiral/chessfeed/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
