package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/manojoshi/redisearch/internal/cli"
)

var appVersion = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd, _ := cli.NewCmd(appVersion, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
