package memheap_test

import (
	"errors"
	"testing"

	"github.com/feather-lang/jsnative"
	"github.com/feather-lang/jsnative/memheap"
)

// =============================================================================
// Stack
// =============================================================================

func TestStack(t *testing.T) {
	h := memheap.New()
	defer h.Close()

	h.PushNumber(1)
	h.PushString("two")
	h.PushBool(true)

	t.Run("Indices", func(t *testing.T) {
		if h.Top() != 3 {
			t.Fatalf("Top() = %d; want 3", h.Top())
		}
		if h.Normalize(-1) != 2 {
			t.Errorf("Normalize(-1) = %d; want 2", h.Normalize(-1))
		}
		if h.Type(-2) != jsnative.TypeString {
			t.Errorf("Type(-2) = %v; want string", h.Type(-2))
		}
		if h.Type(5) != jsnative.TypeNone {
			t.Errorf("Type(5) = %v; want none", h.Type(5))
		}
	})

	t.Run("Swap and Remove", func(t *testing.T) {
		h.Swap(0, 2)
		if !h.GetBool(0) || h.GetNumber(2) != 1 {
			t.Fatalf("swap did not exchange values: %s %s", h.Describe(0), h.Describe(2))
		}
		h.Remove(1)
		if h.Top() != 2 || h.GetNumber(1) != 1 {
			t.Fatalf("remove left %d values, top %s", h.Top(), h.Describe(-1))
		}
	})

	t.Run("Dup and Pop", func(t *testing.T) {
		h.Dup(0)
		if h.Top() != 3 || !h.GetBool(-1) {
			t.Fatalf("dup failed: top %s", h.Describe(-1))
		}
		h.Pop(3)
		if h.Top() != 0 {
			t.Fatalf("Top() = %d after pop; want 0", h.Top())
		}
	})

	t.Run("Invalid index panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for Dup(0) on empty stack")
			}
		}()
		h.Dup(0)
	})
}

// =============================================================================
// Properties
// =============================================================================

func TestProperties(t *testing.T) {
	h := memheap.New()
	defer h.Close()

	h.PushObject()
	h.PushNumber(42)
	if !h.PutProp(-2, "answer") {
		t.Fatal("PutProp failed")
	}

	t.Run("Get and Has", func(t *testing.T) {
		if !h.GetProp(0, "answer") || h.GetNumber(-1) != 42 {
			t.Fatalf("GetProp(answer) = %s; want 42", h.Describe(-1))
		}
		h.Pop(1)
		if h.GetProp(0, "missing") {
			t.Error("GetProp(missing) reported true")
		}
		if h.Type(-1) != jsnative.TypeUndefined {
			t.Errorf("missing property pushed %s", h.Describe(-1))
		}
		h.Pop(1)
	})

	t.Run("Read-only", func(t *testing.T) {
		h.PushString("fixed")
		h.DefProp(0, "ro", jsnative.PropConfigurable)
		h.PushString("changed")
		if h.PutProp(0, "ro") {
			t.Error("PutProp on read-only property succeeded")
		}
		h.GetProp(0, "ro")
		if h.GetString(-1) != "fixed" {
			t.Errorf("ro = %q; want 'fixed'", h.GetString(-1))
		}
		h.Pop(1)
	})

	t.Run("Non-configurable", func(t *testing.T) {
		h.PushString("x")
		h.DefProp(0, "pinned", jsnative.PropWritable)
		if h.DelProp(0, "pinned") {
			t.Error("DelProp on non-configurable property succeeded")
		}
		if !h.DelProp(0, "answer") || h.HasProp(0, "answer") {
			t.Error("DelProp(answer) did not delete")
		}
	})

	t.Run("Prototype chain", func(t *testing.T) {
		h.PushObject()
		h.Dup(0)
		h.SetPrototype(-2)
		if !h.HasProp(-1, "pinned") {
			t.Error("inherited property not visible")
		}
		h.GetPrototype(-1)
		if !h.Identical(-1, 0) {
			t.Error("GetPrototype did not return the parent")
		}
		h.Pop(1)

		// Closing a cycle is ignored.
		h.Dup(-1)
		h.SetPrototype(0)
		h.GetPrototype(0)
		if h.Identical(-1, -2) {
			t.Error("prototype cycle was created")
		}
		h.Pop(2)
	})

	t.Run("Non-object", func(t *testing.T) {
		h.PushNumber(1)
		h.PushNumber(2)
		if h.PutProp(-2, "x") {
			t.Error("PutProp on number succeeded")
		}
		if h.HasProp(-1, "x") {
			t.Error("HasProp on number reported true")
		}
		h.Pop(1)
	})
}

// =============================================================================
// Calls
// =============================================================================

func TestCall(t *testing.T) {
	h := memheap.New()
	defer h.Close()

	t.Run("Fixed arity pads and truncates", func(t *testing.T) {
		var seen []int
		h.PushFunction(func(ctx jsnative.Context) int {
			seen = append(seen, ctx.Top())
			ctx.PushNumber(float64(ctx.Top()))
			return 1
		}, 2)
		h.Dup(-1)
		h.PushNumber(1)
		if err := h.Call(1); err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		h.Pop(1)
		h.PushNumber(1)
		h.PushNumber(2)
		h.PushNumber(3)
		if err := h.Call(3); err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if seen[0] != 2 || seen[1] != 2 {
			t.Errorf("native saw %v arguments; want [2 2]", seen)
		}
		h.Pop(1)
	})

	t.Run("Receiver", func(t *testing.T) {
		h.PushFunction(func(ctx jsnative.Context) int {
			ctx.PushThis()
			ctx.GetProp(-1, "tag")
			return 1
		}, 0)
		h.PushObject()
		h.PushString("me")
		h.PutProp(-2, "tag")
		if err := h.CallMethod(0); err != nil {
			t.Fatalf("CallMethod failed: %v", err)
		}
		if h.GetString(-1) != "me" {
			t.Errorf("this.tag = %q; want 'me'", h.GetString(-1))
		}
		h.Pop(1)
	})

	t.Run("Throw", func(t *testing.T) {
		h.PushFunction(func(ctx jsnative.Context) int {
			return ctx.Throw(jsnative.ReferenceErrorf("nothing here"))
		}, 0)
		err := h.Call(0)
		if err == nil {
			t.Fatal("expected error")
		}
		var exc *memheap.Exception
		if !errors.As(err, &exc) || exc.Name != "ReferenceError" {
			t.Fatalf("err = %v; want ReferenceError exception", err)
		}
		if jsnative.KindOf(err) != jsnative.ReferenceError {
			t.Errorf("KindOf = %v; want ReferenceError", jsnative.KindOf(err))
		}
		h.GetProp(-1, "message")
		if h.GetString(-1) != "nothing here" {
			t.Errorf("message = %q", h.GetString(-1))
		}
		h.Pop(2)
		if h.Top() != 0 {
			t.Errorf("stack not restored: top %d", h.Top())
		}
	})

	t.Run("Not callable", func(t *testing.T) {
		h.PushNumber(3)
		if err := h.Call(0); err == nil {
			t.Fatal("expected error calling a number")
		}
		h.Pop(1)
	})

	t.Run("Construct", func(t *testing.T) {
		h.PushFunction(func(ctx jsnative.Context) int {
			if !ctx.IsConstructCall() {
				return ctx.Throw(jsnative.TypeErrorf("needs new"))
			}
			ctx.PushThis()
			ctx.PushBool(true)
			ctx.PutProp(-2, "built")
			return 0
		}, jsnative.VarArgs)
		h.PushObject()
		h.PushString("shared")
		h.PutProp(-2, "kind")
		h.PutProp(-2, "prototype")

		h.Dup(-1)
		if err := h.Construct(0); err != nil {
			t.Fatalf("Construct failed: %v", err)
		}
		if !h.GetProp(-1, "built") || !h.GetBool(-1) {
			t.Error("constructor did not see the new object as this")
		}
		h.Pop(1)
		h.GetProp(-1, "kind")
		if h.GetString(-1) != "shared" {
			t.Errorf("kind = %q; want prototype value 'shared'", h.GetString(-1))
		}
		h.Pop(2)

		if err := h.Call(0); err == nil {
			t.Error("expected TypeError without new")
		}
		h.Pop(1)
	})

	t.Run("Protocol panics propagate", func(t *testing.T) {
		h.PushFunction(func(ctx jsnative.Context) int {
			panic("broken")
		}, 0)
		func() {
			defer func() {
				if r := recover(); r != "broken" {
					t.Errorf("recover() = %v; want 'broken'", r)
				}
			}()
			h.Call(0)
		}()
		if h.Top() != 0 {
			t.Errorf("stack not restored after panic: top %d", h.Top())
		}
	})
}

// =============================================================================
// Collector
// =============================================================================

func finalizerCounter(runs map[string]int) jsnative.Func {
	return func(ctx jsnative.Context) int {
		ctx.GetProp(0, "tag")
		runs[ctx.GetString(-1)]++
		ctx.Pop(1)
		return 0
	}
}

func pushTagged(h *memheap.Heap, tag string, fin jsnative.Func) {
	h.PushObject()
	h.PushString(tag)
	h.PutProp(-2, "tag")
	h.PushFunction(fin, 1)
	h.SetFinalizer(-2)
}

func TestCollect(t *testing.T) {
	h := memheap.New()
	defer h.Close()

	runs := map[string]int{}
	fin := finalizerCounter(runs)

	t.Run("Unreachable objects are finalized once", func(t *testing.T) {
		pushTagged(h, "a", fin)
		pushTagged(h, "b", fin)
		h.Pop(1) // drop b

		if n := h.Collect(); n != 1 {
			t.Fatalf("Collect ran %d finalizers; want 1", n)
		}
		if runs["b"] != 1 || runs["a"] != 0 {
			t.Fatalf("runs = %v; want b once", runs)
		}
		h.Collect()
		h.Collect()
		if runs["b"] != 1 {
			t.Errorf("b finalized %d times", runs["b"])
		}
		h.Pop(1)
		h.Collect()
		if runs["a"] != 1 {
			t.Errorf("a finalized %d times; want 1", runs["a"])
		}
	})

	t.Run("Objects are freed after finalization", func(t *testing.T) {
		h.Collect()
		before := h.Objects()
		pushTagged(h, "c", fin)
		h.Pop(1)
		h.Collect() // finalizes c, keeps it for this cycle
		h.Collect() // frees c and its finalizer
		if h.Objects() != before {
			t.Errorf("Objects() = %d; want %d", h.Objects(), before)
		}
	})

	t.Run("Resurrection", func(t *testing.T) {
		pushTagged(h, "r", func(ctx jsnative.Context) int {
			runs["r"]++
			ctx.PushGlobalStash()
			ctx.Dup(0)
			ctx.PutProp(-2, "saved")
			ctx.Pop(1)
			return 0
		})
		h.Pop(1)
		h.Collect()
		h.Collect()
		h.PushGlobalStash()
		if !h.GetProp(-1, "saved") {
			t.Fatal("resurrected object was freed")
		}
		h.Pop(2)
		if runs["r"] != 1 {
			t.Errorf("r finalized %d times; want 1", runs["r"])
		}
	})
}

func TestClose(t *testing.T) {
	h := memheap.New()
	runs := map[string]int{}
	fin := finalizerCounter(runs)

	pushTagged(h, "kept", fin)
	h.PushGlobalObject()
	pushTagged(h, "global", fin)
	h.PutProp(-2, "g")
	h.Pop(1)

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if runs["kept"] != 1 || runs["global"] != 1 {
		t.Errorf("runs = %v; want every reachable object finalized once", runs)
	}
	if err := h.Close(); !errors.Is(err, jsnative.ErrClosed) {
		t.Errorf("second Close = %v; want ErrClosed", err)
	}
}
