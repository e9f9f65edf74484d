package jsnative

// Func is the calling convention for native functions pushed with
// [Context.PushFunction].
//
// On entry the call's arguments occupy stack indices 0..n-1. The function
// returns the number of results it left on top of the stack (0 or 1), or
// raises a script error with [Context.Throw].
type Func func(ctx Context) int

// VarArgs marks a native function that accepts any number of arguments.
// Functions pushed with a fixed nargs see exactly nargs stack slots on entry:
// missing arguments are undefined and extra arguments are dropped.
const VarArgs = -1

// Type is the type of a value on the stack.
type Type int

const (
	TypeNone Type = iota // index is not valid
	TypeUndefined
	TypeNull
	TypeBool
	TypeNumber
	TypeString
	TypeObject
	TypeHandle
)

func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeHandle:
		return "handle"
	default:
		return "none"
	}
}

// PropFlags are the attributes of a property defined with [Context.DefProp].
// Attributes not set are false.
type PropFlags uint8

const (
	PropWritable PropFlags = 1 << iota
	PropEnumerable
	PropConfigurable
)

// Context is the stack-based extension interface of a host interpreter.
//
// Stack indices follow the usual embedded-interpreter convention:
// non-negative indices count from the bottom of the current call frame,
// negative indices count from the top (-1 is the topmost value). Using an
// invalid index is a programming error and panics.
//
// A Context is bound to one interpreter heap and must only be used from the
// goroutine running that heap.
type Context interface {
	// Top returns the number of values in the current frame.
	Top() int
	// Normalize converts idx into an absolute (non-negative) index.
	Normalize(idx int) int
	// Pop removes n values from the top of the stack.
	Pop(n int)
	// Dup pushes a copy of the value at idx.
	Dup(idx int)
	// Remove deletes the value at idx, shifting values above it down.
	Remove(idx int)
	// Swap exchanges the values at a and b.
	Swap(a, b int)
	// Type reports the type of the value at idx, or TypeNone.
	Type(idx int) Type
	// IsCallable reports whether the value at idx is a function.
	IsCallable(idx int) bool
	// IsConstructCall reports whether the running native function was
	// invoked as a constructor.
	IsConstructCall() bool

	PushUndefined()
	PushNull()
	PushBool(v bool)
	PushNumber(v float64)
	PushString(v string)
	// PushObject pushes an empty object inheriting from the default
	// object prototype.
	PushObject()
	// PushBareObject pushes an empty object with no prototype.
	PushBareObject()
	// PushHandle pushes an opaque handle. Scripts cannot inspect handles.
	PushHandle(h Handle)
	// PushFunction pushes a native function value.
	PushFunction(fn Func, nargs int)
	// PushCurrentFunction pushes the function value of the running native
	// call.
	PushCurrentFunction()
	// PushThis pushes the receiver of the running native call.
	PushThis()
	PushGlobalObject()
	// PushGlobalStash pushes an object reserved for native code. Scripts
	// cannot reach it.
	PushGlobalStash()

	GetBool(idx int) bool
	GetNumber(idx int) float64
	GetString(idx int) string
	// GetHandle returns the handle at idx; ok is false if the value is not
	// a handle.
	GetHandle(idx int) (h Handle, ok bool)

	// GetProp pushes obj[key] (undefined if absent) and reports whether
	// the property exists, following the prototype chain.
	GetProp(objIdx int, key string) bool
	// PutProp pops a value and stores it as obj[key]. It reports false if
	// the property is read-only or the target is not an object.
	PutProp(objIdx int, key string) bool
	// HasProp reports whether obj[key] exists, following the prototype
	// chain. It is false for non-objects.
	HasProp(objIdx int, key string) bool
	// DelProp deletes an own property.
	DelProp(objIdx int, key string) bool
	// DefProp pops a value and defines it as an own property of obj with
	// the given attributes, replacing any existing property.
	DefProp(objIdx int, key string, flags PropFlags)
	// GetPrototype pushes the prototype of obj (undefined if none).
	GetPrototype(objIdx int)
	// SetPrototype pops a value and makes it the prototype of obj. Popping
	// null or undefined removes the prototype.
	SetPrototype(objIdx int)

	// SetFinalizer pops a function and registers it as the finalizer of
	// obj. The collector calls it at most once, with obj at index 0, when
	// obj becomes unreachable or the heap is torn down.
	SetFinalizer(objIdx int)

	// Call pops a function and nargs arguments, calls the function with an
	// undefined receiver and pushes its result. On failure the thrown value
	// is pushed instead and an error describing it is returned.
	Call(nargs int) error
	// CallMethod is like Call but the stack holds function, receiver,
	// arguments.
	CallMethod(nargs int) error
	// Construct pops a constructor and nargs arguments, invokes it as with
	// `new` and pushes the result (or the thrown value on failure).
	Construct(nargs int) error

	// Throw raises err as a script error from the running native call. It
	// unwinds the native call and does not return; the int result exists
	// so callers can write `return ctx.Throw(err)`.
	Throw(err error) int
}

// Evaluator is implemented by contexts that can evaluate script source.
type Evaluator interface {
	// Eval evaluates src and pushes the completion value.
	Eval(src string) error
}
