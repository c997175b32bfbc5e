package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/brkalloc/heap/alloc"
)

func init() {
	rootCmd.AddCommand(newTraceCmd())
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <script|->",
		Short: "Replay an allocation script against a fresh heap",
		Long: `The trace command replays a line-oriented script against a new heap
and prints the result of every step. Pointers are named by IDs chosen in the
script.

  alloc ID SIZE          Malloc(SIZE), bind the result to ID
  calloc ID COUNT SIZE   Calloc(COUNT, SIZE), bind the result to ID
  realloc ID SIZE        Realloc(ID, SIZE), rebind ID (unbound ID acts as Nil)
  free ID                Free(ID), unbind ID
  check                  verify heap invariants
  dump                   list every block
  # ...                  comment

Example:
  brkctl trace steps.txt
  printf 'alloc a 100\nfree a\ncheck\n' | brkctl trace -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args)
		},
	}
	return cmd
}

// Script operations.
const (
	opAlloc   = "alloc"
	opCalloc  = "calloc"
	opRealloc = "realloc"
	opFree    = "free"
	opCheck   = "check"
	opDump    = "dump"
)

// scriptArity is the number of arguments each operation takes, ID included.
var scriptArity = map[string]int{
	opAlloc:   2,
	opCalloc:  3,
	opRealloc: 2,
	opFree:    1,
	opCheck:   0,
	opDump:    0,
}

type scriptOp struct {
	Line int
	Op   string
	ID   string
	Args []uint
}

// parseScript reads a trace script. Blank lines and lines starting with '#'
// are skipped.
func parseScript(r io.Reader) ([]scriptOp, error) {
	scanner := bufio.NewScanner(r)
	var ops []scriptOp
	line := 0

	for scanner.Scan() {
		line++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		fields := strings.Fields(trim)
		name := strings.ToLower(fields[0])
		arity, ok := scriptArity[name]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown operation %q", line, fields[0])
		}
		if len(fields)-1 != arity {
			return nil, fmt.Errorf("line %d: %s takes %d argument(s), got %d", line, name, arity, len(fields)-1)
		}

		op := scriptOp{Line: line, Op: name}
		if arity > 0 {
			op.ID = fields[1]
			for _, f := range fields[2:] {
				n, err := strconv.ParseUint(f, 0, strconv.IntSize)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid size %q", line, f)
				}
				op.Args = append(op.Args, uint(n))
			}
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ops, nil
}

// TraceStep is the outcome of one script operation.
type TraceStep struct {
	Line   int               `json:"line"`
	Op     string            `json:"op"`
	ID     string            `json:"id,omitempty"`
	Ptr    string            `json:"ptr,omitempty"`
	Usable uint              `json:"usable,omitempty"`
	Null   bool              `json:"null,omitempty"`
	Report *alloc.Report     `json:"report,omitempty"`
	Blocks []alloc.BlockInfo `json:"blocks,omitempty"`
	Break  string            `json:"break"`
}

// tracer executes script operations against one heap.
type tracer struct {
	hp   *alloc.Heap
	ptrs map[string]alloc.Ptr
}

func newTracer(hp *alloc.Heap) *tracer {
	return &tracer{hp: hp, ptrs: make(map[string]alloc.Ptr)}
}

func (t *tracer) step(op scriptOp) (TraceStep, error) {
	st := TraceStep{Line: op.Line, Op: op.Op, ID: op.ID}

	switch op.Op {
	case opAlloc, opCalloc:
		if _, ok := t.ptrs[op.ID]; ok {
			return st, fmt.Errorf("line %d: %s is still allocated", op.Line, op.ID)
		}
		var p alloc.Ptr
		if op.Op == opAlloc {
			p = t.hp.Malloc(op.Args[0])
		} else {
			p = t.hp.Calloc(op.Args[0], op.Args[1])
		}
		t.bind(&st, p)

	case opRealloc:
		p := t.hp.Realloc(t.ptrs[op.ID], op.Args[0])
		if p == alloc.Nil && op.Args[0] == 0 {
			delete(t.ptrs, op.ID)
			st.Null = true
			break
		}
		if p == alloc.Nil {
			// The old block stays bound.
			st.Null = true
			break
		}
		t.bind(&st, p)

	case opFree:
		p, ok := t.ptrs[op.ID]
		if !ok {
			return st, fmt.Errorf("line %d: %s is not allocated", op.Line, op.ID)
		}
		t.hp.Free(p)
		delete(t.ptrs, op.ID)

	case opCheck:
		rep, err := t.hp.Check()
		if err != nil {
			return st, fmt.Errorf("line %d: %w", op.Line, err)
		}
		st.Report = &rep

	case opDump:
		t.hp.Walk(func(b alloc.BlockInfo) bool {
			st.Blocks = append(st.Blocks, b)
			return true
		})
	}

	st.Break = fmt.Sprintf("0x%X", t.hp.Break())
	return st, nil
}

func (t *tracer) bind(st *TraceStep, p alloc.Ptr) {
	if p == alloc.Nil {
		st.Null = true
		return
	}
	t.ptrs[st.ID] = p
	st.Ptr = fmt.Sprintf("0x%X", p)
	st.Usable = t.hp.UsableSize(p)
}

// replay runs ops in order and stops at the first failing step.
func replay(hp *alloc.Heap, ops []scriptOp) ([]TraceStep, error) {
	t := newTracer(hp)
	steps := make([]TraceStep, 0, len(ops))
	for _, op := range ops {
		st, err := t.step(op)
		if err != nil {
			return steps, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func runTrace(args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	ops, err := parseScript(in)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations\n", len(ops))

	hp, err := openHeap()
	if err != nil {
		return err
	}
	defer hp.Close()

	steps, err := replay(hp, ops)
	if jsonOut {
		if perr := printJSON(steps); perr != nil {
			return perr
		}
		return err
	}
	for _, st := range steps {
		printStep(st)
	}
	return err
}

func printStep(st TraceStep) {
	switch st.Op {
	case opAlloc, opCalloc, opRealloc:
		if st.Null {
			printInfo("%4d  %-7s %-8s -> NULL\n", st.Line, st.Op, st.ID)
			return
		}
		printInfo("%4d  %-7s %-8s -> %s (%s bytes)\n", st.Line, st.Op, st.ID, st.Ptr, count(st.Usable))
	case opFree:
		printInfo("%4d  %-7s %-8s    break %s\n", st.Line, st.Op, st.ID, st.Break)
	case opCheck:
		r := st.Report
		printInfo("%4d  check   ok: %d blocks (%d used, %d free), %s bytes\n",
			st.Line, r.Blocks, r.Used, r.Free, count(r.HeapBytes))
	case opDump:
		printInfo("%4d  dump    %d blocks, break %s\n", st.Line, len(st.Blocks), st.Break)
		for _, b := range st.Blocks {
			state := "used"
			if b.Free {
				state = "free"
			}
			printInfo("        0x%X  %s  %s bytes\n", b.Payload, state, count(b.Size))
		}
	}
}
