package jsnative_test

import (
	"fmt"
	"strings"

	"github.com/feather-lang/jsnative"
	"github.com/feather-lang/jsnative/gojahost"
)

type greeting struct{ name string }

func Example() {
	reg := jsnative.NewRegistry(nil)
	defer reg.Close()

	h := gojahost.New()
	defer h.Close()

	b := jsnative.Build().
		Name("Greeter").
		Constructor(jsnative.Variadic(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			name, err := jsnative.OptionalString(ctx, 0, "world")
			if err != nil {
				return 0, err
			}
			jsnative.Put(inst, greeting{name: name})
			return 0, nil
		})).
		Method("greet", jsnative.MethodFunc(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
			g, _ := jsnative.Get[greeting](inst)
			ctx.PushString("Hello, " + g.name + "!")
			return 1, nil
		}))
	if err := reg.DefineGlobal(h, "Greeter", b); err != nil {
		fmt.Println(err)
		return
	}

	if err := h.Eval(`new Greeter("Go").greet() + " " + new Greeter().greet()`); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(h.GetString(-1))
	// Output: Hello, Go! Hello, world!
}

func ExampleBuilder_Inherit() {
	reg := jsnative.NewRegistry(nil)
	defer reg.Close()

	h := gojahost.New()
	defer h.Close()

	shout := jsnative.WithArity(1, func(ctx jsnative.Context, _ *jsnative.Instance) (int, error) {
		s, err := jsnative.RequireString(ctx, 0)
		if err != nil {
			return 0, err
		}
		ctx.PushString(strings.ToUpper(s))
		return 1, nil
	})
	if err := reg.DefineGlobal(h, "Base", jsnative.Build().Method("shout", shout)); err != nil {
		fmt.Println(err)
		return
	}

	h.PushGlobalObject()
	h.GetProp(-1, "Base")
	if err := reg.Define(h, -2, "Derived", jsnative.Build().Inherit(-1)); err != nil {
		fmt.Println(err)
		return
	}
	h.Pop(2)

	err := h.Eval(`
		Derived.prototype.shout = function (s) {
			return this.__super__.shout.call(this, s) + "!";
		};
		new Derived().shout("hi");
	`)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(h.GetString(-1))
	// Output: HI!
}
