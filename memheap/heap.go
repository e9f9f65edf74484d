// Package memheap is an in-memory interpreter heap implementing
// jsnative.Context.
//
// A Heap has a value stack, objects with prototype chains, native functions
// and a mark-and-sweep collector that drives finalizers. It has no
// evaluator: everything a script would do is done through the Context API.
// Collection never happens implicitly; call Collect to run a cycle and Close
// to tear the heap down, which runs every pending finalizer.
//
//	h := memheap.New()
//	defer h.Close()
//
//	reg := jsnative.NewRegistry(nil)
//	defer reg.Close()
//
//	reg.Push(h, jsnative.Build().Name("Point"))
//	h.Construct(0)
//
// A Heap is not safe for concurrent use.
package memheap

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/feather-lang/jsnative"
)

// Heap is a single interpreter heap.
type Heap struct {
	log commonlog.Logger

	stack  []value
	frames []frame

	objects     []*object
	nextID      uint64
	global      *object
	stash       *object
	objectProto *object

	closed bool
}

var _ jsnative.Context = (*Heap)(nil)

// New creates an empty heap.
func New() *Heap {
	h := &Heap{log: commonlog.GetLogger("jsnative.memheap")}
	h.objectProto = h.newObject(nil)
	h.global = h.newObject(h.objectProto)
	h.stash = h.newObject(nil)
	h.frames = []frame{{this: undefined}}
	return h
}

func (h *Heap) newObject(proto *object) *object {
	h.nextID++
	o := &object{id: h.nextID, props: make(map[string]*property), proto: proto}
	h.objects = append(h.objects, o)
	return o
}

// Objects returns the number of objects currently allocated, including the
// built-in global, stash and object prototype.
func (h *Heap) Objects() int { return len(h.objects) }

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func (h *Heap) frame() *frame { return &h.frames[len(h.frames)-1] }

func (h *Heap) base() int { return h.frame().base }

// index converts idx into a position in h.stack.
func (h *Heap) index(idx int) (int, bool) {
	top := len(h.stack) - h.base()
	if idx < 0 {
		idx += top
	}
	if idx < 0 || idx >= top {
		return 0, false
	}
	return h.base() + idx, true
}

func (h *Heap) require(idx int) int {
	pos, ok := h.index(idx)
	if !ok {
		panic(fmt.Sprintf("memheap: invalid stack index %d (top %d)", idx, h.Top()))
	}
	return pos
}

func (h *Heap) at(idx int) value { return h.stack[h.require(idx)] }

// get returns the value at idx, or a TypeNone value for an invalid index.
func (h *Heap) get(idx int) value {
	if pos, ok := h.index(idx); ok {
		return h.stack[pos]
	}
	return value{}
}

func (h *Heap) push(v value) { h.stack = append(h.stack, v) }

func (h *Heap) pop() value {
	pos := h.require(-1)
	v := h.stack[pos]
	h.stack[pos] = value{}
	h.stack = h.stack[:pos]
	return v
}

func (h *Heap) truncate(n int) {
	clear(h.stack[n:])
	h.stack = h.stack[:n]
}

func (h *Heap) Top() int { return len(h.stack) - h.base() }

func (h *Heap) Normalize(idx int) int { return h.require(idx) - h.base() }

func (h *Heap) Pop(n int) {
	if n > h.Top() {
		panic(fmt.Sprintf("memheap: pop %d with top %d", n, h.Top()))
	}
	h.truncate(len(h.stack) - n)
}

func (h *Heap) Dup(idx int) { h.push(h.at(idx)) }

func (h *Heap) Remove(idx int) {
	pos := h.require(idx)
	copy(h.stack[pos:], h.stack[pos+1:])
	h.truncate(len(h.stack) - 1)
}

func (h *Heap) Swap(a, b int) {
	pa, pb := h.require(a), h.require(b)
	h.stack[pa], h.stack[pb] = h.stack[pb], h.stack[pa]
}

func (h *Heap) Type(idx int) jsnative.Type { return h.get(idx).typ }

func (h *Heap) IsCallable(idx int) bool {
	v := h.get(idx)
	return v.typ == jsnative.TypeObject && v.o.fn != nil
}

func (h *Heap) IsConstructCall() bool { return h.frame().construct }

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

func (h *Heap) PushUndefined()       { h.push(undefined) }
func (h *Heap) PushNull()            { h.push(value{typ: jsnative.TypeNull}) }
func (h *Heap) PushBool(v bool)      { h.push(value{typ: jsnative.TypeBool, b: v}) }
func (h *Heap) PushNumber(v float64) { h.push(value{typ: jsnative.TypeNumber, n: v}) }
func (h *Heap) PushString(v string)  { h.push(value{typ: jsnative.TypeString, s: v}) }

func (h *Heap) PushObject()     { h.push(objectValue(h.newObject(h.objectProto))) }
func (h *Heap) PushBareObject() { h.push(objectValue(h.newObject(nil))) }

func (h *Heap) PushHandle(hd jsnative.Handle) {
	h.push(value{typ: jsnative.TypeHandle, h: hd})
}

// PushFunction pushes a native function. Native functions have no
// "prototype" property until one is stored.
func (h *Heap) PushFunction(fn jsnative.Func, nargs int) {
	o := h.newObject(h.objectProto)
	o.fn = &native{fn: fn, nargs: nargs}
	h.push(objectValue(o))
}

func (h *Heap) PushCurrentFunction() {
	if f := h.frame(); f.callee != nil {
		h.push(objectValue(f.callee))
		return
	}
	h.PushUndefined()
}

func (h *Heap) PushThis()         { h.push(h.frame().this) }
func (h *Heap) PushGlobalObject() { h.push(objectValue(h.global)) }
func (h *Heap) PushGlobalStash()  { h.push(objectValue(h.stash)) }

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

func (h *Heap) GetBool(idx int) bool {
	v := h.get(idx)
	return v.typ == jsnative.TypeBool && v.b
}

func (h *Heap) GetNumber(idx int) float64 {
	if v := h.get(idx); v.typ == jsnative.TypeNumber {
		return v.n
	}
	return 0
}

func (h *Heap) GetString(idx int) string {
	if v := h.get(idx); v.typ == jsnative.TypeString {
		return v.s
	}
	return ""
}

func (h *Heap) GetHandle(idx int) (jsnative.Handle, bool) {
	if v := h.get(idx); v.typ == jsnative.TypeHandle {
		return v.h, true
	}
	return 0, false
}

// Identical reports whether the values at a and b are the same object, or
// equal primitives.
func (h *Heap) Identical(a, b int) bool {
	va, vb := h.get(a), h.get(b)
	if va.typ != vb.typ {
		return false
	}
	switch va.typ {
	case jsnative.TypeObject:
		return va.o == vb.o
	case jsnative.TypeNone, jsnative.TypeUndefined, jsnative.TypeNull:
		return true
	default:
		return va.b == vb.b && va.n == vb.n && va.s == vb.s && va.h == vb.h
	}
}

// Describe renders the value at idx for diagnostics.
func (h *Heap) Describe(idx int) string { return h.get(idx).String() }
