package jsnative

// Method is a native callable bound to a class.
//
// Call runs with the script arguments at stack indices 0..Arity()-1 and the
// receiver's Instance. It returns the number of results left on top of the
// stack (0 or 1). A returned error is raised in the script as an exception
// carrying the error's message.
type Method interface {
	Arity() int
	Call(ctx Context, inst *Instance) (int, error)
}

// MethodFunc adapts a function to a Method taking no arguments.
type MethodFunc func(ctx Context, inst *Instance) (int, error)

func (f MethodFunc) Arity() int { return 0 }

func (f MethodFunc) Call(ctx Context, inst *Instance) (int, error) {
	return f(ctx, inst)
}

type arityMethod struct {
	arity int
	fn    MethodFunc
}

func (m arityMethod) Arity() int { return m.arity }

func (m arityMethod) Call(ctx Context, inst *Instance) (int, error) {
	return m.fn(ctx, inst)
}

// WithArity returns a Method that receives exactly n arguments.
//
//	b.Method("greet", jsnative.WithArity(1, func(ctx jsnative.Context, _ *jsnative.Instance) (int, error) {
//	    name, err := jsnative.RequireString(ctx, 0)
//	    if err != nil {
//	        return 0, err
//	    }
//	    ctx.PushString("Hello " + name)
//	    return 1, nil
//	}))
func WithArity(n int, fn MethodFunc) Method {
	return arityMethod{arity: n, fn: fn}
}

// Variadic returns a Method that receives all call arguments; use ctx.Top()
// to count them.
func Variadic(fn MethodFunc) Method {
	return arityMethod{arity: VarArgs, fn: fn}
}

// boxedMethod is what the handle table stores for methods and constructors.
type boxedMethod struct {
	class  string
	name   string
	method Method
}

func (b *boxedMethod) qualifiedName() string {
	if b.class == "" {
		return b.name
	}
	return b.class + "." + b.name
}
