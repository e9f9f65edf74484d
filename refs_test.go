package jsnative_test

import (
	"testing"

	"github.com/feather-lang/jsnative"
	"github.com/feather-lang/jsnative/memheap"
)

func TestRefs(t *testing.T) {
	h := memheap.New()
	defer h.Close()

	t.Run("Undefined is the zero ref", func(t *testing.T) {
		h.PushUndefined()
		if r := jsnative.MakeRef(h); r != 0 {
			t.Errorf("MakeRef(undefined) = %d; want 0", r)
		}
		if h.Top() != 0 {
			t.Errorf("MakeRef left %d values", h.Top())
		}
		jsnative.PushRef(h, 0)
		if h.Type(-1) != jsnative.TypeUndefined {
			t.Errorf("PushRef(0) pushed %s", h.Describe(-1))
		}
		h.Pop(1)
	})

	t.Run("Free list reuse", func(t *testing.T) {
		h.PushString("one")
		r1 := jsnative.MakeRef(h)
		h.PushString("two")
		r2 := jsnative.MakeRef(h)
		if r1 != 1 || r2 != 2 {
			t.Fatalf("refs = %d, %d; want 1, 2", r1, r2)
		}

		jsnative.PushRef(h, r2)
		if h.GetString(-1) != "two" {
			t.Errorf("PushRef(r2) = %s", h.Describe(-1))
		}
		h.Pop(1)

		jsnative.Unref(h, r1)
		h.PushString("three")
		if r3 := jsnative.MakeRef(h); r3 != r1 {
			t.Errorf("MakeRef after Unref = %d; want reused %d", r3, r1)
		}
		h.PushString("four")
		if r4 := jsnative.MakeRef(h); r4 != 3 {
			t.Errorf("MakeRef with empty free list = %d; want 3", r4)
		}
	})

	t.Run("Refs keep values alive", func(t *testing.T) {
		finalized := 0
		h.PushObject()
		h.PushFunction(func(ctx jsnative.Context) int {
			finalized++
			return 0
		}, 1)
		h.SetFinalizer(-2)
		r := jsnative.MakeRef(h)

		h.Collect()
		if finalized != 0 {
			t.Fatal("referenced object was finalized")
		}
		jsnative.Unref(h, r)
		h.Collect()
		if finalized != 1 {
			t.Errorf("finalized = %d after Unref; want 1", finalized)
		}
	})
}
