package main

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
	"github.com/spf13/cobra"

	"github.com/joshuapare/brkalloc/heap/alloc"
	"github.com/joshuapare/brkalloc/internal/logger"
	"github.com/joshuapare/brkalloc/internal/testutil"
)

var (
	stressGoroutines int
	stressOps        int
	stressMaxSize    uint
	stressMaxLive    int
	stressSeed       int64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressGoroutines, "goroutines", 8, "Number of concurrent workers")
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Operations per worker")
	cmd.Flags().UintVar(&stressMaxSize, "max-size", 4096, "Largest request in bytes")
	cmd.Flags().IntVar(&stressMaxLive, "max-live", 64, "Live allocations per worker before forcing a release")
	cmd.Flags().Int64Var(&stressSeed, "seed", 0, "Random seed (0 draws from fastrand, not reproducible)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent allocate/resize/release workload",
		Long: `The stress command runs random Malloc, Calloc, Realloc and Free calls
from several goroutines against one heap. Every payload is filled and
checksummed after it is written and verified before it is resized or
released. The heap invariants are checked once all workers finish.

Example:
  brkctl stress --goroutines 16 --ops 100000
  brkctl stress --seed 42 --max-size 65536 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

type stressOptions struct {
	Goroutines int
	Ops        int
	MaxSize    uint
	MaxLive    int
	Seed       int64
}

// StressResult is the outcome of a stress run.
type StressResult struct {
	Goroutines int    `json:"goroutines"`
	Ops        int    `json:"ops_per_worker"`
	MaxSize    uint   `json:"max_size"`
	Seed       int64  `json:"seed"`
	Elapsed    string `json:"elapsed"`

	Allocs   int64 `json:"allocs"`
	Callocs  int64 `json:"callocs"`
	Reallocs int64 `json:"reallocs"`
	Frees    int64 `json:"frees"`
	Failed   int64 `json:"failed"`
	Corrupt  int64 `json:"corrupt"`

	Stats  alloc.Stats  `json:"stats"`
	Report alloc.Report `json:"report"`
}

type stressCounters struct {
	allocs, callocs, reallocs, frees, failed, corrupt atomic.Int64
}

// intner is the random source a worker draws from.
type intner interface {
	Intn(n int) int
}

type fastSource struct{}

func (fastSource) Intn(n int) int { return fastrand.Intn(n) }

type stressBlock struct {
	p   alloc.Ptr
	n   int
	sum uint64
}

func runStress() error {
	hp, err := openHeap()
	if err != nil {
		return err
	}
	defer hp.Close()

	res, err := stress(hp, stressOptions{
		Goroutines: stressGoroutines,
		Ops:        stressOps,
		MaxSize:    stressMaxSize,
		MaxLive:    stressMaxLive,
		Seed:       stressSeed,
	})
	if jsonOut {
		if perr := printJSON(res); perr != nil {
			return perr
		}
		return err
	}
	printStressResult(res)
	return err
}

// stress runs the workload against hp and checks the heap afterwards. The
// result is filled in even when an error is returned.
func stress(hp *alloc.Heap, opts stressOptions) (StressResult, error) {
	if opts.Goroutines <= 0 || opts.Ops < 0 || opts.MaxSize == 0 || opts.MaxLive <= 0 {
		return StressResult{}, fmt.Errorf("invalid stress options %+v", opts)
	}

	res := StressResult{
		Goroutines: opts.Goroutines,
		Ops:        opts.Ops,
		MaxSize:    opts.MaxSize,
		Seed:       opts.Seed,
	}
	var c stressCounters

	start := time.Now()
	var wg sync.WaitGroup
	for w := range opts.Goroutines {
		var rng intner = fastSource{}
		if opts.Seed != 0 {
			rng = rand.New(rand.NewSource(opts.Seed + int64(w)))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			stressWorker(hp, w, rng, opts, &c)
		}()
	}
	wg.Wait()
	res.Elapsed = time.Since(start).String()

	res.Allocs = c.allocs.Load()
	res.Callocs = c.callocs.Load()
	res.Reallocs = c.reallocs.Load()
	res.Frees = c.frees.Load()
	res.Failed = c.failed.Load()
	res.Corrupt = c.corrupt.Load()
	res.Stats = hp.Stats()

	logger.Info("stress finished",
		"goroutines", opts.Goroutines, "ops", opts.Ops, "elapsed", res.Elapsed,
		"failed", res.Failed, "corrupt", res.Corrupt)

	rep, err := hp.Check()
	res.Report = rep
	if err != nil {
		return res, fmt.Errorf("heap check failed: %w", err)
	}
	if res.Corrupt > 0 {
		return res, fmt.Errorf("%d payloads failed checksum verification", res.Corrupt)
	}
	if res.Stats.LiveBlocks != 0 {
		return res, fmt.Errorf("%d blocks still live after all workers released", res.Stats.LiveBlocks)
	}
	return res, nil
}

func stressWorker(hp *alloc.Heap, id int, rng intner, opts stressOptions, c *stressCounters) {
	live := make([]stressBlock, 0, opts.MaxLive)

	verify := func(b stressBlock) {
		if testutil.Checksum(hp.Bytes(b.p)[:b.n]) != b.sum {
			c.corrupt.Add(1)
			logger.Error("payload corrupted", "worker", id, "ptr", fmt.Sprintf("0x%X", b.p), "size", b.n)
		}
	}
	fill := func(p alloc.Ptr, n int) stressBlock {
		buf := hp.Bytes(p)[:n]
		testutil.Fill(buf, n, byte(id*31+rng.Intn(256)))
		return stressBlock{p: p, n: n, sum: testutil.Checksum(buf)}
	}
	release := func(i int) {
		verify(live[i])
		hp.Free(live[i].p)
		c.frees.Add(1)
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
	}

	for range opts.Ops {
		n := 1 + rng.Intn(int(opts.MaxSize))
		op := rng.Intn(10)
		if len(live) >= opts.MaxLive {
			op = 9
		}

		switch {
		case op < 4 || len(live) == 0:
			c.allocs.Add(1)
			p := hp.Malloc(uint(n))
			if p == alloc.Nil {
				c.failed.Add(1)
				continue
			}
			live = append(live, fill(p, n))

		case op < 6:
			c.callocs.Add(1)
			p := hp.Calloc(uint(n), 1)
			if p == alloc.Nil {
				c.failed.Add(1)
				continue
			}
			if !testutil.Zeroed(hp.Bytes(p)[:n]) {
				c.corrupt.Add(1)
				logger.Error("calloc payload not zeroed", "worker", id, "ptr", fmt.Sprintf("0x%X", p))
			}
			live = append(live, fill(p, n))

		case op < 8:
			i := rng.Intn(len(live))
			b := live[i]
			verify(b)
			c.reallocs.Add(1)
			q := hp.Realloc(b.p, uint(n))
			if q == alloc.Nil {
				c.failed.Add(1)
				continue
			}
			if b.n <= n && testutil.Checksum(hp.Bytes(q)[:b.n]) != b.sum {
				c.corrupt.Add(1)
				logger.Error("realloc lost contents", "worker", id, "from", b.n, "to", n)
			}
			live[i] = fill(q, n)

		default:
			release(rng.Intn(len(live)))
		}
	}

	for len(live) > 0 {
		release(len(live) - 1)
	}
}

func printStressResult(res StressResult) {
	printInfo("\nStress Run:\n")
	printInfo("  Workers:  %d x %s ops (max %s bytes)\n", res.Goroutines, count(res.Ops), count(res.MaxSize))
	if res.Seed != 0 {
		printInfo("  Seed:     %d\n", res.Seed)
	}
	printInfo("  Elapsed:  %s\n", res.Elapsed)
	printInfo("\nOperations:\n")
	printInfo("  Malloc:   %s\n", count(res.Allocs))
	printInfo("  Calloc:   %s\n", count(res.Callocs))
	printInfo("  Realloc:  %s (%s in place, %s moved)\n",
		count(res.Reallocs), count(res.Stats.ReallocInPlace), count(res.Stats.ReallocMoved))
	printInfo("  Free:     %s\n", count(res.Frees))
	printInfo("  Failed:   %s\n", count(res.Failed))
	printInfo("  Corrupt:  %s\n", count(res.Corrupt))
	printInfo("\nHeap:\n")
	printInfo("  Reused:   %s\n", count(res.Stats.Reused))
	printInfo("  Grown:    %s (%s bytes)\n", count(res.Stats.Grown), count(res.Stats.GrowBytes))
	printInfo("  Trimmed:  %s (%s bytes)\n", count(res.Stats.Trims), count(res.Stats.TrimBytes))
	printInfo("  Blocks:   %s (%s free, %s bytes)\n",
		count(res.Report.Blocks), count(res.Report.Free), count(res.Report.FreeBytes))
	printInfo("  Size:     %s bytes\n", count(res.Report.HeapBytes))
	printInfo("\n")
}
