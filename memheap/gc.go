package memheap

import (
	"github.com/feather-lang/jsnative"
)

// ---------------------------------------------------------------------------
// Collector
// ---------------------------------------------------------------------------

// Collect runs one mark-and-sweep cycle and returns the number of finalizers
// it ran.
//
// An unreachable object with a pending finalizer survives the cycle it is
// found in: its finalizer runs with the object at index 0 and the object is
// freed by a later cycle, unless the finalizer made it reachable again.
// Every finalizer runs at most once per object.
func (h *Heap) Collect() int {
	if h.closed {
		return 0
	}
	h.markRoots()

	var pending []*object
	for _, o := range h.objects {
		if !o.marked && o.finalizer != nil && !o.finalized {
			pending = append(pending, o)
		}
	}
	for _, o := range pending {
		h.mark(o)
	}

	freed := h.sweep()
	h.log.Debugf("collect: freed %d objects, %d finalizers pending", freed, len(pending))

	for _, o := range pending {
		h.finalize(o)
	}
	return len(pending)
}

func (h *Heap) markRoots() {
	for _, o := range h.objects {
		o.marked = false
	}
	h.mark(h.objectProto)
	h.mark(h.global)
	h.mark(h.stash)
	for _, v := range h.stack {
		h.markValue(v)
	}
	for _, f := range h.frames {
		h.mark(f.callee)
		h.markValue(f.this)
	}
}

func (h *Heap) markValue(v value) {
	if v.typ == jsnative.TypeObject {
		h.mark(v.o)
	}
}

func (h *Heap) mark(o *object) {
	work := []*object{o}
	for len(work) > 0 {
		o := work[len(work)-1]
		work = work[:len(work)-1]
		if o == nil || o.marked {
			continue
		}
		o.marked = true
		if o.proto != nil {
			work = append(work, o.proto)
		}
		if o.finalizer != nil {
			work = append(work, o.finalizer)
		}
		for _, p := range o.props {
			if p.v.typ == jsnative.TypeObject {
				work = append(work, p.v.o)
			}
		}
	}
}

func (h *Heap) sweep() int {
	live := h.objects[:0]
	for _, o := range h.objects {
		if o.marked {
			live = append(live, o)
		}
	}
	freed := len(h.objects) - len(live)
	clear(h.objects[len(live):])
	h.objects = live
	return freed
}

// finalize runs the finalizer of o in its own frame. A throwing finalizer
// is logged and otherwise ignored.
func (h *Heap) finalize(o *object) {
	o.finalized = true
	fn := o.finalizer
	h.push(objectValue(fn))
	h.push(undefined)
	h.push(objectValue(o))
	if err := h.CallMethod(1); err != nil {
		h.log.Warningf("finalizer for object %d: %v", o.id, err)
	}
	h.Pop(1)
}

// Close tears the heap down. Every object whose finalizer has not run yet is
// finalized, in allocation order, including objects still reachable. After
// Close the heap must not be used.
func (h *Heap) Close() error {
	if h.closed {
		return jsnative.ErrClosed
	}
	h.truncate(h.base())
	for {
		var pending []*object
		for _, o := range h.objects {
			if o.finalizer != nil && !o.finalized {
				pending = append(pending, o)
			}
		}
		if len(pending) == 0 {
			break
		}
		for _, o := range pending {
			h.finalize(o)
		}
	}
	h.closed = true
	h.log.Debugf("closed heap with %d objects", len(h.objects))
	clear(h.objects)
	h.objects = nil
	h.stack = nil
	return nil
}
