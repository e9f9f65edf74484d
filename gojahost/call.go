package gojahost

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dop251/goja"

	"github.com/feather-lang/jsnative"
)

// Exception is the Go error for a value thrown by script code or by a native
// function. Err is the native error passed to Throw, if the value came from
// one.
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

// wrap adapts fn to the calling convention of the native shim:
// impl(this, callee, isConstruct, args).
func (h *Host) wrap(fn jsnative.Func, nargs int) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		callee, _ := call.Argument(1).(*goja.Object)
		args := call.Argument(3).ToObject(h.vm)
		n := int(args.Get("length").ToInteger())
		count := n
		if nargs >= 0 {
			count = nargs
		}

		base := len(h.stack)
		depth := len(h.frames)
		h.frames = append(h.frames, frame{
			base:      base,
			callee:    callee,
			this:      call.Argument(0),
			construct: call.Argument(2).ToBoolean(),
		})
		for i := 0; i < count; i++ {
			if i < n {
				h.pushValue(args.Get(strconv.Itoa(i)))
			} else {
				h.PushUndefined()
			}
		}
		defer func() {
			h.truncate(base)
			h.frames = h.frames[:depth]
		}()

		if rets := fn(h); rets > 0 && len(h.stack) > base {
			return h.value(h.stack[len(h.stack)-1])
		}
		return goja.Undefined()
	}
}

// Throw raises err as a script exception. The exception is constructed with
// the global error constructor named by err's jsnative.ErrorKind, so scripts
// can test it with instanceof. An *Exception caught from a nested call keeps
// its own name and message.
func (h *Host) Throw(err error) int {
	if len(h.frames) == 1 {
		panic(fmt.Sprintf("gojahost: throw outside a native call: %v", err))
	}
	name, msg := jsnative.KindOf(err).ScriptName(), err.Error()
	if e, ok := err.(*Exception); ok {
		name, msg = e.Name, e.Message
	}
	obj, cerr := h.vm.New(h.vm.Get(name), h.vm.ToValue(msg))
	if cerr != nil {
		obj = h.vm.NewGoError(err)
	}
	h.thrown[obj] = err
	panic(obj)
}

// caught converts an error returned by the runtime into an *Exception and
// pushes the thrown value.
func (h *Host) caught(err error) error {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		h.PushUndefined()
		return &Exception{Name: "Error", Message: err.Error(), Err: err}
	}
	v := ex.Value()
	h.pushValue(v)

	exc := &Exception{Name: "Error", Message: v.String()}
	if o, ok := v.(*goja.Object); ok {
		if name := o.Get("name"); name != nil && !goja.IsUndefined(name) {
			exc.Name = name.String()
		}
		if msg := o.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			exc.Message = msg.String()
		}
		if native, ok := h.thrown[o]; ok {
			exc.Err = native
			delete(h.thrown, o)
		}
	}
	return exc
}

// popArgs pops nargs arguments and returns them as script values.
func (h *Host) popArgs(nargs int) []goja.Value {
	pos := h.require(-nargs - 1) + 1
	args := make([]goja.Value, 0, nargs)
	for _, s := range h.stack[pos:] {
		args = append(args, h.value(s))
	}
	h.truncate(pos)
	return args
}

func (h *Host) Call(nargs int) error {
	defer h.settle()
	args := h.popArgs(nargs)
	fn := h.value(h.pop())
	return h.call(fn, goja.Undefined(), args)
}

func (h *Host) CallMethod(nargs int) error {
	defer h.settle()
	args := h.popArgs(nargs)
	this := h.value(h.pop())
	fn := h.value(h.pop())
	return h.call(fn, this, args)
}

func (h *Host) call(fn, this goja.Value, args []goja.Value) error {
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return h.notCallable(fn, "function")
	}
	v, err := callable(this, args...)
	if err != nil {
		return h.caught(err)
	}
	h.pushValue(v)
	return nil
}

func (h *Host) Construct(nargs int) error {
	defer h.settle()
	args := h.popArgs(nargs)
	fn := h.value(h.pop())
	if _, ok := goja.AssertConstructor(fn); !ok {
		return h.notCallable(fn, "constructor")
	}
	obj, err := h.vm.New(fn, args...)
	if err != nil {
		return h.caught(err)
	}
	h.pushValue(obj)
	return nil
}

func (h *Host) notCallable(v goja.Value, what string) error {
	msg := fmt.Sprintf("%s is not a %s", v.String(), what)
	obj, err := h.vm.New(h.vm.Get("TypeError"), h.vm.ToValue(msg))
	if err != nil {
		h.PushUndefined()
	} else {
		h.pushValue(obj)
	}
	return &Exception{Name: "TypeError", Message: msg}
}
