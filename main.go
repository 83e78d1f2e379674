package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ridepulse/cmd/engine"
	"ridepulse/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	fs := flag.NewFlagSet("ridepulse", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "Path to the YAML configuration file")
	maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
	prefetch := fs.Int("prefetch", 16, "RabbitMQ prefetch count for the audit consumer")
	cli.AttachUsage(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	if *maxConc < 1 {
		fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
		fs.Usage()
		os.Exit(2)
	}
	if *prefetch <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
		fs.Usage()
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := engine.Run(ctx, engine.Options{
		ConfigPath:    *configPath,
		MaxConcurrent: *maxConc,
		Prefetch:      *prefetch,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
