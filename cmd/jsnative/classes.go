package main

import (
	"strings"

	"github.com/feather-lang/jsnative"
)

type counter struct {
	value int
}

func counterClass() *jsnative.Builder {
	return jsnative.Build().
		Constructor(jsnative.Variadic(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			start, err := jsnative.OptionalInt(ctx, 0, 0)
			if err != nil {
				return 0, err
			}
			jsnative.Put(inst, counter{value: start})
			return 0, nil
		})).
		Method("get", jsnative.MethodFunc(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			c := jsnative.Entry[counter](inst, nil)
			ctx.PushNumber(float64(c.value))
			return 1, nil
		})).
		Method("set", jsnative.WithArity(1, func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			v, err := jsnative.RequireInt(ctx, 0)
			if err != nil {
				return 0, err
			}
			jsnative.Entry[counter](inst, nil).value = v
			return 0, nil
		})).
		Method("incr", jsnative.MethodFunc(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			c := jsnative.Entry[counter](inst, nil)
			c.value++
			ctx.PushNumber(float64(c.value))
			return 1, nil
		})).
		Method("add", jsnative.WithArity(1, func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			n, err := jsnative.RequireInt(ctx, 0)
			if err != nil {
				return 0, err
			}
			c := jsnative.Entry[counter](inst, nil)
			c.value += n
			ctx.PushNumber(float64(c.value))
			return 1, nil
		}))
}

type greeter struct {
	name string
}

func greeterConstructor() jsnative.Method {
	return jsnative.Variadic(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
		name, err := jsnative.OptionalString(ctx, 0, "world")
		if err != nil {
			return 0, err
		}
		if name == "" {
			return 0, jsnative.Errorf("name must not be empty")
		}
		jsnative.Put(inst, greeter{name: name})
		return 0, nil
	})
}

func greeterClass() *jsnative.Builder {
	return jsnative.Build().
		Constructor(greeterConstructor()).
		Method("greet", jsnative.MethodFunc(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			g, ok := jsnative.Get[greeter](inst)
			if !ok {
				return 0, jsnative.ReferenceErrorf("greeter is not initialized")
			}
			ctx.PushString("Hello, " + g.name + "!")
			return 1, nil
		}))
}

// loudGreeterClass inherits greet from the class at parentIdx.
func loudGreeterClass(parentIdx int) *jsnative.Builder {
	return jsnative.Build().
		Name("LoudGreeter").
		Constructor(greeterConstructor()).
		Method("shout", jsnative.MethodFunc(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			g, ok := jsnative.Get[greeter](inst)
			if !ok {
				return 0, jsnative.ReferenceErrorf("greeter is not initialized")
			}
			ctx.PushString("HELLO, " + strings.ToUpper(g.name) + "!")
			return 1, nil
		})).
		Inherit(parentIdx)
}

// installClasses defines the demo classes selected by cfg on the global
// object.
func installClasses(ctx jsnative.Context, reg *jsnative.Registry, cfg ClassConfig) error {
	if cfg.Counter {
		if err := reg.DefineGlobal(ctx, "Counter", counterClass()); err != nil {
			return err
		}
	}
	if !cfg.Greeter {
		return nil
	}
	if err := reg.DefineGlobal(ctx, "Greeter", greeterClass()); err != nil {
		return err
	}

	ctx.PushGlobalObject()
	defer ctx.Pop(2)
	ctx.GetProp(-1, "Greeter")
	return reg.Define(ctx, -2, "LoudGreeter", loudGreeterClass(-1))
}
