// Package gojahost implements jsnative.Context on top of the goja
// ECMAScript engine.
//
// Native functions pushed through the Context are real script functions:
// they can be called, invoked with `new`, and throw catchable exceptions.
// Reserved "\xff" keys never reach the script: they live in a side table
// keyed by object identity and are resolved along the prototype chain like
// ordinary properties.
//
//	h := gojahost.New()
//	defer h.Close()
//
//	reg := jsnative.NewRegistry(nil)
//	defer reg.Close()
//
//	if err := reg.DefineGlobal(h, "Counter", counterClass()); err != nil {
//	    return err
//	}
//	if err := h.Eval(`new Counter().incr()`); err != nil {
//	    return err
//	}
//
// Hidden keys and finalizers are held through weak pointers. When the Go
// collector frees a script object its finalizer is queued and runs the next
// time control returns to the top level (after Eval, Call, CallMethod or
// Construct, or on Collect). Finalizers still pending run when the host is
// closed. A Host is not safe for concurrent use.
package gojahost

import (
	"fmt"
	"reflect"
	"strings"
	"weak"

	"github.com/dop251/goja"
	"github.com/tliron/commonlog"

	"github.com/feather-lang/jsnative"
)

// shimSource wraps a Go implementation in a strict script function so that
// it is constructible and can tell `new` calls apart.
const shimSource = `(function (impl) {
	"use strict";
	return function native() {
		return impl(this, native, new.target !== undefined, Array.prototype.slice.call(arguments));
	};
})`

// slot is a stack or side-table value: a script value or an opaque handle.
type slot struct {
	v      goja.Value
	handle jsnative.Handle
	isH    bool
}

// handleBox carries a handle stored under an ordinary script property.
type handleBox struct {
	h jsnative.Handle
}

var handleBoxType = reflect.TypeOf((*handleBox)(nil))

func unbox(v goja.Value) (jsnative.Handle, bool) {
	o, ok := v.(*goja.Object)
	if !ok || o.ExportType() != handleBoxType {
		return 0, false
	}
	return o.Export().(*handleBox).h, true
}

type frame struct {
	base      int
	callee    *goja.Object
	this      goja.Value
	construct bool
}

// Host is one goja runtime exposed through jsnative.Context.
type Host struct {
	vm   *goja.Runtime
	log  commonlog.Logger
	shim goja.Callable

	stack  []slot
	frames []frame

	stash    *goja.Object
	objects  map[weak.Pointer[goja.Object]]*tracked
	seq      uint64
	dead     *deadQueue
	draining bool

	// thrown maps exceptions raised by Throw to their native error until
	// control returns to the top level.
	thrown map[*goja.Object]error

	closed bool
}

var (
	_ jsnative.Context   = (*Host)(nil)
	_ jsnative.Evaluator = (*Host)(nil)
)

// New creates a host with a fresh goja runtime.
func New() *Host {
	vm := goja.New()
	v, err := vm.RunString(shimSource)
	if err != nil {
		panic(fmt.Sprintf("gojahost: compiling native shim: %v", err))
	}
	shim, ok := goja.AssertFunction(v)
	if !ok {
		panic("gojahost: native shim is not a function")
	}
	return &Host{
		vm:      vm,
		log:     commonlog.GetLogger("jsnative.gojahost"),
		shim:    shim,
		frames:  []frame{{this: goja.Undefined()}},
		stash:   vm.NewObject(),
		objects: make(map[weak.Pointer[goja.Object]]*tracked),
		dead:    &deadQueue{},
		thrown:  make(map[*goja.Object]error),
	}
}

// Runtime returns the underlying goja runtime.
func (h *Host) Runtime() *goja.Runtime { return h.vm }

// Eval runs src as a script and pushes its completion value. On failure the
// thrown value is pushed instead and an *Exception is returned.
func (h *Host) Eval(src string) error {
	defer h.settle()
	v, err := h.vm.RunString(src)
	if err != nil {
		return h.caught(err)
	}
	h.pushValue(v)
	return nil
}

// Incomplete reports whether err is a syntax error caused by input ending
// early, such as an unclosed block.
func Incomplete(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Unexpected end of input")
}

// Close runs every pending finalizer in registration order, including those
// registered by finalizers, and releases the runtime. The host must not be
// used afterwards.
func (h *Host) Close() error {
	if h.closed {
		return jsnative.ErrClosed
	}
	h.truncate(h.base())
	h.draining = true
	ran := 0
	for {
		pending := h.pending()
		if len(pending) == 0 {
			break
		}
		for _, t := range pending {
			if t.fn == nil {
				continue
			}
			o := t.key.Value()
			if o == nil {
				o = h.standIn(t)
			}
			h.finalize(o, t)
			ran++
		}
	}
	h.closed = true
	h.dead.close()
	h.log.Debugf("closed host, ran %d finalizers", ran)
	clear(h.objects)
	clear(h.thrown)
	h.stack = nil
	return nil
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func (h *Host) frame() *frame { return &h.frames[len(h.frames)-1] }

func (h *Host) base() int { return h.frame().base }

func (h *Host) index(idx int) (int, bool) {
	top := len(h.stack) - h.base()
	if idx < 0 {
		idx += top
	}
	if idx < 0 || idx >= top {
		return 0, false
	}
	return h.base() + idx, true
}

func (h *Host) require(idx int) int {
	pos, ok := h.index(idx)
	if !ok {
		panic(fmt.Sprintf("gojahost: invalid stack index %d (top %d)", idx, h.Top()))
	}
	return pos
}

func (h *Host) at(idx int) slot { return h.stack[h.require(idx)] }

func (h *Host) get(idx int) (slot, bool) {
	if pos, ok := h.index(idx); ok {
		return h.stack[pos], true
	}
	return slot{}, false
}

func (h *Host) push(s slot) { h.stack = append(h.stack, s) }

func (h *Host) pushValue(v goja.Value) {
	if v == nil {
		v = goja.Undefined()
	}
	h.push(slot{v: v})
}

func (h *Host) pop() slot {
	pos := h.require(-1)
	s := h.stack[pos]
	h.truncate(pos)
	return s
}

func (h *Host) truncate(n int) {
	clear(h.stack[n:])
	h.stack = h.stack[:n]
}

// value converts s into a script value. Handles are boxed.
func (h *Host) value(s slot) goja.Value {
	if s.isH {
		return h.vm.ToValue(&handleBox{h: s.handle})
	}
	if s.v == nil {
		return goja.Undefined()
	}
	return s.v
}

func (h *Host) Top() int { return len(h.stack) - h.base() }

func (h *Host) Normalize(idx int) int { return h.require(idx) - h.base() }

func (h *Host) Pop(n int) {
	if n > h.Top() {
		panic(fmt.Sprintf("gojahost: pop %d with top %d", n, h.Top()))
	}
	h.truncate(len(h.stack) - n)
}

func (h *Host) Dup(idx int) { h.push(h.at(idx)) }

func (h *Host) Remove(idx int) {
	pos := h.require(idx)
	copy(h.stack[pos:], h.stack[pos+1:])
	h.truncate(len(h.stack) - 1)
}

func (h *Host) Swap(a, b int) {
	pa, pb := h.require(a), h.require(b)
	h.stack[pa], h.stack[pb] = h.stack[pb], h.stack[pa]
}

func (h *Host) Type(idx int) jsnative.Type {
	s, ok := h.get(idx)
	if !ok {
		return jsnative.TypeNone
	}
	return typeOf(s)
}

func typeOf(s slot) jsnative.Type {
	if s.isH {
		return jsnative.TypeHandle
	}
	v := s.v
	switch {
	case v == nil || goja.IsUndefined(v):
		return jsnative.TypeUndefined
	case goja.IsNull(v):
		return jsnative.TypeNull
	}
	if _, ok := v.(*goja.Object); ok {
		if _, boxed := unbox(v); boxed {
			return jsnative.TypeHandle
		}
		return jsnative.TypeObject
	}
	t := v.ExportType()
	if t == nil {
		return jsnative.TypeUndefined
	}
	switch t.Kind() {
	case reflect.Bool:
		return jsnative.TypeBool
	case reflect.Int64, reflect.Float64:
		return jsnative.TypeNumber
	case reflect.String:
		return jsnative.TypeString
	}
	return jsnative.TypeUndefined
}

func (h *Host) IsCallable(idx int) bool {
	s, ok := h.get(idx)
	if !ok || s.isH || s.v == nil {
		return false
	}
	_, ok = goja.AssertFunction(s.v)
	return ok
}

func (h *Host) IsConstructCall() bool { return h.frame().construct }

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

func (h *Host) PushUndefined()       { h.pushValue(goja.Undefined()) }
func (h *Host) PushNull()            { h.pushValue(goja.Null()) }
func (h *Host) PushBool(v bool)      { h.pushValue(h.vm.ToValue(v)) }
func (h *Host) PushNumber(v float64) { h.pushValue(h.vm.ToValue(v)) }
func (h *Host) PushString(v string)  { h.pushValue(h.vm.ToValue(v)) }

func (h *Host) PushObject()     { h.pushValue(h.vm.NewObject()) }
func (h *Host) PushBareObject() { h.pushValue(h.vm.CreateObject(nil)) }

func (h *Host) PushHandle(hd jsnative.Handle) {
	h.push(slot{handle: hd, isH: true})
}

// PushFunction pushes a script function backed by fn. The function is
// constructible; IsConstructCall reports whether it was invoked with `new`.
func (h *Host) PushFunction(fn jsnative.Func, nargs int) {
	impl := h.vm.ToValue(h.wrap(fn, nargs))
	v, err := h.shim(goja.Undefined(), impl)
	if err != nil {
		panic(fmt.Sprintf("gojahost: creating native function: %v", err))
	}
	o := v.(*goja.Object)
	if err := o.DefineDataProperty("name", h.vm.ToValue(""), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE); err != nil {
		h.log.Warningf("clearing function name: %v", err)
	}
	h.pushValue(o)
}

func (h *Host) PushCurrentFunction() {
	if f := h.frame(); f.callee != nil {
		h.pushValue(f.callee)
		return
	}
	h.PushUndefined()
}

func (h *Host) PushThis() { h.pushValue(h.frame().this) }

func (h *Host) PushGlobalObject() { h.pushValue(h.vm.GlobalObject()) }

// PushGlobalStash pushes an object that is never exposed to scripts.
func (h *Host) PushGlobalStash() { h.pushValue(h.stash) }

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

func (h *Host) GetBool(idx int) bool {
	s, ok := h.get(idx)
	if !ok || typeOf(s) != jsnative.TypeBool {
		return false
	}
	return s.v.ToBoolean()
}

func (h *Host) GetNumber(idx int) float64 {
	s, ok := h.get(idx)
	if !ok || typeOf(s) != jsnative.TypeNumber {
		return 0
	}
	return s.v.ToFloat()
}

func (h *Host) GetString(idx int) string {
	s, ok := h.get(idx)
	if !ok || typeOf(s) != jsnative.TypeString {
		return ""
	}
	return s.v.String()
}

func (h *Host) GetHandle(idx int) (jsnative.Handle, bool) {
	s, ok := h.get(idx)
	if !ok {
		return 0, false
	}
	if s.isH {
		return s.handle, true
	}
	return unbox(s.v)
}

// Value returns the script value at idx. Handles are returned boxed.
func (h *Host) Value(idx int) goja.Value { return h.value(h.at(idx)) }

// PushValue pushes a script value obtained from the runtime.
func (h *Host) PushValue(v goja.Value) { h.pushValue(v) }

// Describe renders the value at idx for diagnostics.
func (h *Host) Describe(idx int) string {
	s, ok := h.get(idx)
	switch {
	case !ok:
		return "none"
	case s.isH:
		return s.handle.String()
	}
	return h.value(s).String()
}
