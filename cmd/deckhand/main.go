// Deckhand: Deployment Task-Graph MCP Server
//
// An MCP server that compiles declarative deployment patterns into
// executable task DAGs and guards a TODO task graph against circular
// dependencies. The graph engine is pure — execution belongs to an
// external DAG runner.
//
// Usage:
//
//	deckhand serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	dhserver "github.com/avigueras/deckhand/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("deckhand v%s\n", dhserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := dhserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. Diagnostics go to stderr only —
	// stdout is the MCP transport.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Deckhand v%s — Deployment Task-Graph MCP Server

Usage:
  deckhand serve      Start the MCP server (stdio transport)
  deckhand version    Print the version
  deckhand help       Show this help

Environment:
  DECKHAND_DATA       Task database directory (default ~/.deckhand)
  DECKHAND_PATTERNS   Pattern library directory (default ~/.deckhand/patterns)
`, dhserver.Version)
}
