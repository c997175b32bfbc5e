package alloc

import (
	"fmt"

	"github.com/joshuapare/brkalloc/heap/block"
	"github.com/joshuapare/brkalloc/internal/format"
)

// Check walks the chain from head to tail and verifies the heap invariants:
// the walk terminates, blocks are aligned, address-ascending and contiguous,
// back links agree with forward links, tail is the last block, and the tail
// ends at the break. The first violation is returned as an *InvariantError.
func (hp *Heap) Check() (Report, error) {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	return hp.checkLocked()
}

func (hp *Heap) checkLocked() (Report, error) {
	cur, err := hp.seg.Sbrk(0)
	if err != nil {
		return Report{}, fmt.Errorf("alloc: read break: %w", err)
	}
	r := Report{FirstBlock: hp.head, Break: cur}

	if hp.head == 0 || hp.tail == 0 {
		if hp.head != hp.tail {
			return r, &InvariantError{Reason: fmt.Sprintf("head 0x%X but tail 0x%X", hp.head, hp.tail)}
		}
		return r, nil
	}
	if hp.head >= cur {
		return r, &InvariantError{Addr: hp.head, Reason: fmt.Sprintf("head at or above break 0x%X", cur)}
	}
	r.HeapBytes = cur - hp.head

	// Every block spans at least a header, which bounds the walk even if a
	// link points backwards.
	maxBlocks := int(r.HeapBytes/block.HeaderSize) + 1

	var prev, prevEnd uintptr
	for addr := hp.head; addr != 0; {
		if r.Blocks >= maxBlocks {
			return r, &InvariantError{Addr: addr, Reason: fmt.Sprintf("chain longer than %d blocks (cycle?)", maxBlocks)}
		}
		if !format.IsAligned(block.PayloadFor(addr)) {
			return r, &InvariantError{Addr: addr, Reason: "payload misaligned"}
		}
		if prev != 0 && addr != prevEnd {
			return r, &InvariantError{Addr: addr, Reason: fmt.Sprintf("expected block at 0x%X after 0x%X", prevEnd, prev)}
		}
		h, ok := hp.header(addr)
		if !ok {
			return r, &InvariantError{Addr: addr, Reason: "header outside region"}
		}
		if h.Prev() != prev {
			return r, &InvariantError{Addr: addr, Reason: fmt.Sprintf("prev link 0x%X, want 0x%X", h.Prev(), prev)}
		}
		end := block.End(addr, h)
		if end > cur || end < addr {
			return r, &InvariantError{Addr: addr, Reason: fmt.Sprintf("size %d runs past break", h.Size())}
		}

		r.Blocks++
		if h.Free() {
			r.Free++
			r.FreeBytes += h.Size()
		} else {
			r.Used++
			r.UsedBytes += h.Size()
		}
		prev, prevEnd = addr, end
		addr = h.Next()
	}

	if prev != hp.tail {
		return r, &InvariantError{Addr: prev, Reason: fmt.Sprintf("last block is not tail 0x%X", hp.tail)}
	}
	if prevEnd != cur {
		return r, &InvariantError{Addr: prev, Reason: fmt.Sprintf("tail ends at 0x%X, break is 0x%X", prevEnd, cur)}
	}
	return r, nil
}

// Walk calls fn for every block in address order until fn returns false.
// The blocks are snapshotted under the lock and fn runs without it, so fn may
// call back into the heap; the snapshot may then be stale.
func (hp *Heap) Walk(fn func(BlockInfo) bool) {
	hp.mu.Lock()
	var blocks []BlockInfo
	for addr := hp.head; addr != 0; {
		h, ok := hp.header(addr)
		if !ok || len(blocks) > 0 && addr <= blocks[len(blocks)-1].Addr {
			break
		}
		blocks = append(blocks, BlockInfo{
			Addr:    addr,
			Payload: block.PayloadFor(addr),
			Size:    h.Size(),
			Free:    h.Free(),
		})
		addr = h.Next()
	}
	hp.mu.Unlock()

	for _, b := range blocks {
		if !fn(b) {
			return
		}
	}
}
