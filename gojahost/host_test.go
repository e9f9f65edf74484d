package gojahost_test

import (
	"errors"
	"testing"

	"github.com/feather-lang/jsnative"
	"github.com/feather-lang/jsnative/gojahost"
)

// =============================================================================
// Evaluation
// =============================================================================

func TestEval(t *testing.T) {
	h := gojahost.New()
	defer h.Close()

	t.Run("Completion value", func(t *testing.T) {
		if err := h.Eval(`1 + 2`); err != nil {
			t.Fatalf("Eval failed: %v", err)
		}
		if h.GetNumber(-1) != 3 {
			t.Errorf("expected 3, got %s", h.Describe(-1))
		}
		h.Pop(1)
	})

	t.Run("Thrown error", func(t *testing.T) {
		err := h.Eval(`throw new RangeError("too far")`)
		var exc *gojahost.Exception
		if !errors.As(err, &exc) {
			t.Fatalf("err = %v; want *Exception", err)
		}
		if exc.Name != "RangeError" || exc.Message != "too far" {
			t.Errorf("got %s: %s", exc.Name, exc.Message)
		}
		if h.Type(-1) != jsnative.TypeObject {
			t.Errorf("thrown value not pushed: %s", h.Describe(-1))
		}
		h.Pop(1)
	})

	t.Run("Incomplete input", func(t *testing.T) {
		err := h.Eval(`function f() {`)
		if err == nil {
			t.Fatal("expected syntax error")
		}
		if !gojahost.Incomplete(err) {
			t.Errorf("Incomplete(%v) = false", err)
		}
		h.Pop(1)

		err = h.Eval(`)`)
		if err == nil || gojahost.Incomplete(err) {
			t.Errorf("Incomplete reported for a plain syntax error: %v", err)
		}
		h.Pop(1)
	})
}

// =============================================================================
// Values and properties
// =============================================================================

func TestValues(t *testing.T) {
	h := gojahost.New()
	defer h.Close()

	h.PushUndefined()
	h.PushNull()
	h.PushBool(true)
	h.PushNumber(2.5)
	h.PushString("s")
	h.PushObject()
	h.PushHandle(7)

	want := []jsnative.Type{
		jsnative.TypeUndefined, jsnative.TypeNull, jsnative.TypeBool,
		jsnative.TypeNumber, jsnative.TypeString, jsnative.TypeObject,
		jsnative.TypeHandle,
	}
	for i, typ := range want {
		if got := h.Type(i); got != typ {
			t.Errorf("Type(%d) = %v; want %v", i, got, typ)
		}
	}
	if hd, ok := h.GetHandle(-1); !ok || hd != 7 {
		t.Errorf("GetHandle = %v, %v; want 7", hd, ok)
	}

	t.Run("Handle survives an ordinary property", func(t *testing.T) {
		h.PutProp(-2, "h")
		h.GetProp(-1, "h")
		if hd, ok := h.GetHandle(-1); !ok || hd != 7 {
			t.Errorf("GetHandle after round trip = %v, %v", hd, ok)
		}
		h.Pop(1)
	})
	h.Pop(h.Top())
}

func TestHiddenKeys(t *testing.T) {
	h := gojahost.New()
	defer h.Close()

	if err := h.Eval(`var o = {}; o`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	h.PushHandle(42)
	h.PutProp(-2, jsnative.InstanceKey)

	if !h.HasProp(-1, jsnative.InstanceKey) {
		t.Fatal("hidden key not stored")
	}
	h.Pop(1)

	if err := h.Eval(`Object.getOwnPropertyNames(o).length`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if h.GetNumber(-1) != 0 {
		t.Errorf("script sees %v own properties; want 0", h.GetNumber(-1))
	}
	h.Pop(1)

	t.Run("Inherited along the prototype chain", func(t *testing.T) {
		if err := h.Eval(`Object.create(o)`); err != nil {
			t.Fatalf("Eval failed: %v", err)
		}
		if !h.GetProp(-1, jsnative.InstanceKey) {
			t.Fatal("hidden key not inherited")
		}
		if hd, _ := h.GetHandle(-1); hd != 42 {
			t.Errorf("inherited handle = %v; want 42", hd)
		}
		h.Pop(2)
	})

	t.Run("Delete", func(t *testing.T) {
		h.Eval(`o`)
		h.DelProp(-1, jsnative.InstanceKey)
		if h.HasProp(-1, jsnative.InstanceKey) {
			t.Error("hidden key survived delete")
		}
		h.Pop(1)
	})
}

func TestDefProp(t *testing.T) {
	h := gojahost.New()
	defer h.Close()

	h.PushGlobalObject()
	h.PushObject()
	h.PushString("fixed")
	h.DefProp(-2, "ro", jsnative.PropConfigurable)
	h.PutProp(-2, "obj")
	h.Pop(1)

	if err := h.Eval(`obj.ro = "changed"; obj.ro`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if h.GetString(-1) != "fixed" {
		t.Errorf("ro = %q; want 'fixed'", h.GetString(-1))
	}
	h.Pop(1)
}

// =============================================================================
// Native functions
// =============================================================================

func TestNativeFunction(t *testing.T) {
	h := gojahost.New()
	defer h.Close()

	h.PushGlobalObject()
	h.PushFunction(func(ctx jsnative.Context) int {
		a, err := jsnative.RequireNumber(ctx, 0)
		if err != nil {
			return ctx.Throw(err)
		}
		b, _ := jsnative.OptionalNumber(ctx, 1, 1)
		ctx.PushNumber(a * b)
		return 1
	}, 2)
	h.PutProp(-2, "mul")

	h.PushFunction(func(ctx jsnative.Context) int {
		ctx.PushBool(ctx.IsConstructCall())
		return 1
	}, 0)
	h.PutProp(-2, "probe")
	h.Pop(1)

	t.Run("Arguments", func(t *testing.T) {
		if err := h.Eval(`mul(6, 7) + mul(1)`); err != nil {
			t.Fatalf("Eval failed: %v", err)
		}
		if h.GetNumber(-1) != 43 {
			t.Errorf("expected 43, got %s", h.Describe(-1))
		}
		h.Pop(1)
	})

	t.Run("Argument type error", func(t *testing.T) {
		if err := h.Eval(`var r; try { mul("x") } catch (e) { r = e instanceof TypeError && e.message } r`); err != nil {
			t.Fatalf("Eval failed: %v", err)
		}
		if h.GetString(-1) != "argument 0: expected number, got string" {
			t.Errorf("message = %s", h.Describe(-1))
		}
		h.Pop(1)
	})

	t.Run("Construct call", func(t *testing.T) {
		if err := h.Eval(`probe()`); err != nil {
			t.Fatalf("Eval failed: %v", err)
		}
		if h.GetBool(-1) {
			t.Error("plain call reported as construct call")
		}
		h.Pop(1)
	})

	t.Run("Go error survives the script boundary", func(t *testing.T) {
		h.PushGlobalObject()
		h.GetProp(-1, "mul")
		h.PushString("bad")
		err := h.Call(1)
		if jsnative.KindOf(err) != jsnative.ArgumentTypeError {
			t.Errorf("KindOf(%v) = %v; want ArgumentTypeError", err, jsnative.KindOf(err))
		}
		h.Pop(2)
	})
}

func TestCloseRunsFinalizers(t *testing.T) {
	h := gojahost.New()

	var order []string
	fin := func(tag string) jsnative.Func {
		return func(ctx jsnative.Context) int {
			if ctx.Type(0) != jsnative.TypeObject {
				t.Errorf("finalizer %s: index 0 is %v", tag, ctx.Type(0))
			}
			order = append(order, tag)
			return 0
		}
	}

	h.PushObject()
	h.PushFunction(fin("first"), 1)
	h.SetFinalizer(-2)
	h.PushObject()
	h.PushFunction(fin("second"), 1)
	h.SetFinalizer(-2)
	h.Pop(2)

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("finalizer order = %v", order)
	}
	if err := h.Close(); !errors.Is(err, jsnative.ErrClosed) {
		t.Errorf("second Close = %v; want ErrClosed", err)
	}
}
