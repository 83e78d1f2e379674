package cli

import (
	"flag"
	"fmt"
	"io"
)

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./ridepulse [flags]

The trip engine serves the HTTP API, the WebSocket gateway and the
RabbitMQ audit consumer from a single process.

Flags:
  --config=<path>        Path to the YAML config (default config/config.yaml)
  --max-concurrent=<n>   Maximum in-flight HTTP requests (default 100)
  --prefetch=<n>         RabbitMQ prefetch for the audit consumer (default 16)

Examples:
  ./ridepulse
  ./ridepulse --config=config/config.yaml --max-concurrent=150 --prefetch=8`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise usage message to a FlagSet.
func AttachUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ./ridepulse [flags]")
		fs.PrintDefaults()
	}
}
