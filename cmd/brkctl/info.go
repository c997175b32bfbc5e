package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/brkalloc/heap/block"
	"github.com/joshuapare/brkalloc/heap/brk"
	"github.com/joshuapare/brkalloc/internal/format"
	"github.com/joshuapare/brkalloc/pkg/malloc"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report block layout, alignment and region geometry",
		Long: `The info command reserves a region of --capacity bytes and prints the
block header layout, payload alignment, page size and reservation size.

Example:
  brkctl info
  brkctl info --capacity 1G --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

// HeapInfo describes the allocator layout on this platform.
type HeapInfo struct {
	HeaderSize  int            `json:"header_size"`
	Alignment   int            `json:"alignment"`
	Fields      map[string]int `json:"header_fields"`
	PageSize    int            `json:"page_size"`
	Capacity    int            `json:"capacity"`
	Base        string         `json:"base"`
	MaxPayload  int            `json:"max_payload"`
	FreeFlagBit uint64         `json:"free_flag"`
}

func runInfo() error {
	n, err := malloc.ParseSize(capacity)
	if err != nil {
		return fmt.Errorf("--capacity: %w", err)
	}
	r, err := brk.Reserve(n)
	if err != nil {
		return fmt.Errorf("failed to reserve region: %w", err)
	}
	defer r.Close()

	info := HeapInfo{
		HeaderSize: block.HeaderSize,
		Alignment:  block.Alignment,
		Fields: map[string]int{
			"size":  format.HeaderSizeOffset,
			"next":  format.HeaderNextOffset,
			"prev":  format.HeaderPrevOffset,
			"flags": format.HeaderFlagsOffset,
		},
		PageSize:    r.PageSize(),
		Capacity:    r.Cap(),
		Base:        fmt.Sprintf("0x%X", r.Base()),
		MaxPayload:  r.Cap() - block.HeaderSize,
		FreeFlagBit: format.FlagFree,
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nHeap Layout:\n")
	printInfo("  Header:    %d bytes (size@%d next@%d prev@%d flags@%d)\n",
		info.HeaderSize, format.HeaderSizeOffset, format.HeaderNextOffset,
		format.HeaderPrevOffset, format.HeaderFlagsOffset)
	printInfo("  Alignment: %d bytes\n", info.Alignment)
	printInfo("  Free flag: 0x%X\n", info.FreeFlagBit)
	printInfo("\nRegion:\n")
	printInfo("  Page size:   %s bytes\n", count(info.PageSize))
	printInfo("  Capacity:    %s bytes\n", count(info.Capacity))
	printInfo("  Max payload: %s bytes\n", count(info.MaxPayload))
	printVerbose("  Base:        %s\n", info.Base)
	printInfo("\n")
	return nil
}
