package memheap

import (
	"fmt"

	"github.com/feather-lang/jsnative"
)

// frame is one active native call. Stack indices are relative to base.
type frame struct {
	base      int
	callee    *object
	this      value
	construct bool
}

// Exception is the Go error for a value thrown out of Call, CallMethod or
// Construct. Err is the native error passed to Throw, if any.
type Exception struct {
	Name    string
	Message string
	Err     error
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

func (e *Exception) Unwrap() error { return e.Err }

// thrown is the panic value used to unwind a native call.
type thrown struct {
	v   value
	exc *Exception
}

// newError builds an error object carrying name and message.
func (h *Heap) newError(name, msg string) value {
	o := h.newObject(h.objectProto)
	o.props["name"] = &property{v: value{typ: jsnative.TypeString, s: name}, flags: jsnative.PropWritable | jsnative.PropConfigurable}
	o.props["message"] = &property{v: value{typ: jsnative.TypeString, s: msg}, flags: jsnative.PropWritable | jsnative.PropConfigurable}
	return objectValue(o)
}

// Throw raises err from the running native call. The error object's name is
// the script constructor for err's jsnative.ErrorKind. An *Exception caught
// from a nested call is raised again with its own name and message.
func (h *Heap) Throw(err error) int {
	if len(h.frames) == 1 {
		panic(fmt.Sprintf("memheap: throw outside a native call: %v", err))
	}
	name, msg := jsnative.KindOf(err).ScriptName(), err.Error()
	if e, ok := err.(*Exception); ok {
		name, msg = e.Name, e.Message
	}
	exc := &Exception{Name: name, Message: msg, Err: err}
	panic(&thrown{v: h.newError(name, msg), exc: exc})
}

// Call pops a function and nargs arguments and pushes the result.
func (h *Heap) Call(nargs int) error {
	fnPos := h.require(-nargs - 1)
	h.stack = append(h.stack, value{})
	copy(h.stack[fnPos+2:], h.stack[fnPos+1:])
	h.stack[fnPos+1] = undefined
	return h.CallMethod(nargs)
}

// CallMethod pops a function, a receiver and nargs arguments and pushes the
// result.
func (h *Heap) CallMethod(nargs int) error {
	fnPos := h.require(-nargs - 2)
	fn := h.stack[fnPos]
	this := h.stack[fnPos+1]
	if fn.typ != jsnative.TypeObject || fn.o.fn == nil {
		return h.fail(fnPos, "TypeError", fmt.Sprintf("%v is not a function", fn))
	}
	args := h.detach(fnPos, fnPos+2)
	v, err := h.invoke(fn.o, this, args, false)
	h.push(v)
	return err
}

// Construct pops a constructor and nargs arguments, invokes it as with `new`
// and pushes the constructed object.
func (h *Heap) Construct(nargs int) error {
	fnPos := h.require(-nargs - 1)
	fn := h.stack[fnPos]
	if fn.typ != jsnative.TypeObject || fn.o.fn == nil {
		return h.fail(fnPos, "TypeError", fmt.Sprintf("%v is not a constructor", fn))
	}

	proto := h.objectProto
	if p, ok := fn.o.lookup("prototype"); ok && p.v.typ == jsnative.TypeObject {
		proto = p.v.o
	}
	obj := h.newObject(proto)

	args := h.detach(fnPos, fnPos+1)
	v, err := h.invoke(fn.o, objectValue(obj), args, true)
	if err != nil {
		h.push(v)
		return err
	}
	if v.typ == jsnative.TypeObject {
		h.push(v)
	} else {
		h.push(objectValue(obj))
	}
	return nil
}

// fail replaces everything from pos upward with a new error object.
func (h *Heap) fail(pos int, name, msg string) error {
	h.truncate(pos)
	h.push(h.newError(name, msg))
	return &Exception{Name: name, Message: msg}
}

// detach copies the arguments starting at argPos and truncates the stack to
// pos.
func (h *Heap) detach(pos, argPos int) []value {
	args := append([]value(nil), h.stack[argPos:]...)
	h.truncate(pos)
	return args
}

// invoke runs fn in a new frame. It returns the result, or the thrown value
// together with an *Exception. Panics other than a throw are not recovered.
func (h *Heap) invoke(fn *object, this value, args []value, construct bool) (result value, err error) {
	n := fn.fn.nargs
	if n >= 0 {
		for len(args) < n {
			args = append(args, undefined)
		}
		args = args[:n]
	}

	base := len(h.stack)
	depth := len(h.frames)
	h.frames = append(h.frames, frame{base: base, callee: fn, this: this, construct: construct})
	h.stack = append(h.stack, args...)

	defer func() {
		r := recover()
		h.truncate(base)
		h.frames = h.frames[:depth]
		if r == nil {
			return
		}
		t, ok := r.(*thrown)
		if !ok {
			panic(r)
		}
		result, err = t.v, t.exc
	}()

	rets := fn.fn.fn(h)
	result = undefined
	if rets > 0 && len(h.stack) > base {
		result = h.stack[len(h.stack)-1]
	}
	return result, nil
}
