package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"NoteKeeper/internal/cli/commands"
	"NoteKeeper/internal/config"
)

// Задаются при сборке: -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.NewConfig()
	if cfg.Version {
		fmt.Printf("nkcli %s (built %s)\n", version, buildDate)
		return commands.ExitOK
	}

	// Ctrl+C прерывает текущий запрос к серверу
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Dispatch(ctx, cfg, flag.Args())
}
