package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/brkalloc/heap/alloc"
	"github.com/joshuapare/brkalloc/internal/logger"
	"github.com/joshuapare/brkalloc/pkg/malloc"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	capacity string
	logLevel string
	logFile  string

	logCloser io.Closer

	// numbers renders counters with digit grouping.
	numbers = message.NewPrinter(language.English)
)

var rootCmd = &cobra.Command{
	Use:   "brkctl",
	Short: "Exercise and inspect the brkalloc heap",
	Long: `brkctl drives a private brkalloc heap: it runs concurrent stress
workloads, replays allocation scripts, and reports the block layout.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&capacity, "capacity", "64M", "Heap reservation size (bytes, K, M or G suffix)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Allocator log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append allocator logs to this file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// setupLogging enables the allocator log when --verbose or --log-file is set.
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		level = slog.LevelDebug
	}
	logCloser, err = logger.Init(logger.Options{
		Enabled: verbose || logFile != "",
		Level:   level,
		File:    logFile,
		JSON:    jsonOut,
	})
	return err
}

// openHeap opens a private heap sized by --capacity.
func openHeap() (*alloc.Heap, error) {
	n, err := malloc.ParseSize(capacity)
	if err != nil {
		return nil, fmt.Errorf("--capacity: %w", err)
	}
	hp, err := alloc.Open(&alloc.Options{Capacity: n, Logger: logger.L})
	if err != nil {
		return nil, fmt.Errorf("failed to open heap: %w", err)
	}
	printVerbose("Reserved %s bytes\n", numbers.Sprintf("%d", n))
	return hp, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// count formats n with thousands separators.
func count[T ~int | ~int64 | ~uint | ~uintptr](n T) string {
	return numbers.Sprintf("%d", n)
}
