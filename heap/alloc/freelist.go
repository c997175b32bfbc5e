package alloc

import (
	"github.com/joshuapare/brkalloc/heap/block"
	"github.com/joshuapare/brkalloc/internal/format"
)

// Everything in this file runs with hp.mu held and must not call an exported
// Heap method.

// header returns the header view of the block starting at addr.
func (hp *Heap) header(addr uintptr) (block.Header, bool) {
	b, ok := hp.seg.Slice(addr, block.HeaderSize)
	if !ok {
		return nil, false
	}
	return block.Header(b), true
}

// requestSize converts a request to the stored payload size.
func requestSize(size uint) (uintptr, bool) {
	if size > maxRequest {
		return 0, false
	}
	need, ok := format.Align16Uint(size)
	if !ok {
		return 0, false
	}
	return uintptr(need), true
}

func (hp *Heap) allocLocked(size uint) Ptr {
	if size == 0 {
		return Nil
	}
	need, ok := requestSize(size)
	if !ok {
		hp.stats.Failures++
		return Nil
	}

	if addr := hp.firstFit(need); addr != 0 {
		hp.stats.Reused++
		return block.PayloadFor(addr)
	}

	addr := hp.extend(need)
	if addr == 0 {
		hp.stats.Failures++
		return Nil
	}
	hp.stats.Grown++
	return block.PayloadFor(addr)
}

// firstFit marks the first free block with at least need payload bytes as
// used and returns its header address, or 0.
func (hp *Heap) firstFit(need uintptr) uintptr {
	for addr := hp.head; addr != 0; {
		h, ok := hp.header(addr)
		if !ok {
			return 0
		}
		if h.Free() && h.Size() >= need {
			h.SetFree(false)
			hp.stats.FreeListBlocks--
			hp.stats.LiveBlocks++
			hp.stats.LivePayload += int64(h.Size())
			return addr
		}
		addr = h.Next()
	}
	return 0
}

// extend moves the break up by one block of need payload bytes and links the
// new block as the tail. It returns the new header address, or 0 if the
// segment cannot grow.
func (hp *Heap) extend(need uintptr) uintptr {
	total := block.HeaderSize + int(need)
	addr, err := hp.seg.Sbrk(total)
	if err != nil {
		hp.log.Debug("alloc: grow failed", "need", need, "delta", total, "err", err)
		return 0
	}
	h, ok := hp.header(addr)
	if !ok {
		// The segment grew but will not show the memory; give it back.
		_, _ = hp.seg.Sbrk(-total)
		return 0
	}

	h.Init(need)
	h.SetPrev(hp.tail)
	if hp.tail != 0 {
		if th, ok := hp.header(hp.tail); ok {
			th.SetNext(addr)
		}
	} else {
		hp.head = addr
	}
	hp.tail = addr

	hp.stats.GrowBytes += int64(total)
	hp.stats.LiveBlocks++
	hp.stats.LivePayload += int64(need)
	hp.log.Debug("alloc: grow", "block", addr, "size", need, "delta", total)
	return addr
}

func (hp *Heap) releaseLocked(p Ptr) {
	if p == Nil {
		return
	}
	addr := block.HeaderFor(p)
	h, ok := hp.header(addr)
	if !ok {
		hp.log.Debug("alloc: free of address outside heap", "ptr", p)
		return
	}

	hp.stats.LiveBlocks--
	hp.stats.LivePayload -= int64(h.Size())
	if addr == hp.tail && hp.trim(addr, h) {
		return
	}
	h.SetFree(true)
	hp.stats.FreeListBlocks++
}

// trim returns the tail block at addr to the segment. It reports false, and
// changes nothing, when the block does not end at the break or the shrink
// fails.
func (hp *Heap) trim(addr uintptr, h block.Header) bool {
	cur, err := hp.seg.Sbrk(0)
	if err != nil || block.End(addr, h) != cur {
		return false
	}

	// The header may be unmapped once the break moves; read it first.
	size := h.Size()
	prev := h.Prev()
	total := block.HeaderSize + int(size)
	if _, err := hp.seg.Sbrk(-total); err != nil {
		hp.stats.TrimFailures++
		hp.log.Debug("alloc: trim failed", "block", addr, "delta", -total, "err", err)
		return false
	}

	if prev == 0 {
		hp.head, hp.tail = 0, 0
	} else {
		if ph, ok := hp.header(prev); ok {
			ph.SetNext(0)
		}
		hp.tail = prev
	}

	hp.stats.Trims++
	hp.stats.TrimBytes += int64(total)
	hp.log.Debug("alloc: trim", "block", addr, "size", size, "delta", -total)
	return true
}
