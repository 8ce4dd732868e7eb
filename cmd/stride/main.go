package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
}
