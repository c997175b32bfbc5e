package malloc

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joshuapare/brkalloc/heap/alloc"
)

const (
	envCapacity = "BRKALLOC_CAPACITY"
	envLogAlloc = "BRKALLOC_LOG_ALLOC"
)

// Config configures the default heap.
type Config struct {
	// Capacity is the reservation size in bytes. 0 selects alloc.DefaultCapacity.
	Capacity int

	// LogAlloc sends debug records for growth and trimming to stderr when
	// Logger is nil.
	LogAlloc bool

	// Logger overrides the destination for allocator records.
	Logger *slog.Logger
}

// ConfigFromEnv reads BRKALLOC_CAPACITY and BRKALLOC_LOG_ALLOC.
func ConfigFromEnv() (Config, error) {
	cfg := Config{LogAlloc: os.Getenv(envLogAlloc) != ""}
	if v := os.Getenv(envCapacity); v != "" {
		n, err := ParseSize(v)
		if err != nil {
			return cfg, fmt.Errorf("malloc: %s: %w", envCapacity, err)
		}
		cfg.Capacity = n
	}
	return cfg, nil
}

// ParseSize parses a positive byte count with an optional binary suffix:
// "4096", "64K", "256M", "2G" (case-insensitive, optional trailing "B" or "iB").
func ParseSize(s string) (int, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.TrimSuffix(t, "IB")
	t = strings.TrimSuffix(t, "B")

	shift := 0
	switch {
	case strings.HasSuffix(t, "K"):
		shift = 10
	case strings.HasSuffix(t, "M"):
		shift = 20
	case strings.HasSuffix(t, "G"):
		shift = 30
	}
	if shift > 0 {
		t = t[:len(t)-1]
	}

	n, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %q", s)
	}
	if n > int64(^uint(0)>>1)>>shift {
		return 0, fmt.Errorf("size %q overflows int", s)
	}
	return int(n << shift), nil
}

func (c Config) options() *alloc.Options {
	logger := c.Logger
	if logger == nil && c.LogAlloc {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return &alloc.Options{Capacity: c.Capacity, Logger: logger}
}
