package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alpeshvas/siphon/internal/config"
	"github.com/alpeshvas/siphon/internal/execute"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return execute.New(cfg).Run(ctx)
}
