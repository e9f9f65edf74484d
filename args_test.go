package jsnative_test

import (
	"testing"

	"github.com/feather-lang/jsnative"
	"github.com/feather-lang/jsnative/memheap"
)

func TestArgs(t *testing.T) {
	h := memheap.New()
	defer h.Close()

	h.PushString("s")
	h.PushNumber(2.5)
	h.PushNumber(7)
	h.PushBool(true)
	h.PushObject()
	h.PushFunction(func(jsnative.Context) int { return 0 }, 0)
	h.PushUndefined()

	t.Run("Require", func(t *testing.T) {
		if s, err := jsnative.RequireString(h, 0); err != nil || s != "s" {
			t.Errorf("RequireString = %q, %v", s, err)
		}
		if n, err := jsnative.RequireNumber(h, 1); err != nil || n != 2.5 {
			t.Errorf("RequireNumber = %v, %v", n, err)
		}
		if n, err := jsnative.RequireInt(h, 2); err != nil || n != 7 {
			t.Errorf("RequireInt = %v, %v", n, err)
		}
		if b, err := jsnative.RequireBool(h, 3); err != nil || !b {
			t.Errorf("RequireBool = %v, %v", b, err)
		}
		if err := jsnative.RequireObject(h, 4); err != nil {
			t.Errorf("RequireObject failed: %v", err)
		}
		if err := jsnative.RequireFunction(h, 5); err != nil {
			t.Errorf("RequireFunction failed: %v", err)
		}
	})

	t.Run("Type errors", func(t *testing.T) {
		_, err := jsnative.RequireString(h, 1)
		if err == nil || err.Error() != "argument 1: expected string, got number" {
			t.Errorf("RequireString(number) = %v", err)
		}
		if jsnative.KindOf(err) != jsnative.ArgumentTypeError {
			t.Errorf("KindOf = %v; want ArgumentTypeError", jsnative.KindOf(err))
		}
		if _, err := jsnative.RequireInt(h, 1); err == nil {
			t.Error("RequireInt accepted 2.5")
		}
		if err := jsnative.RequireFunction(h, 4); err == nil {
			t.Error("RequireFunction accepted a plain object")
		}
		if _, err := jsnative.RequireBool(h, 9); err == nil || err.Error() != "argument 9: expected boolean, got none" {
			t.Errorf("RequireBool(missing) = %v", err)
		}
	})

	t.Run("Optional", func(t *testing.T) {
		if s, err := jsnative.OptionalString(h, 6, "def"); err != nil || s != "def" {
			t.Errorf("OptionalString(undefined) = %q, %v", s, err)
		}
		if n, err := jsnative.OptionalInt(h, 10, 3); err != nil || n != 3 {
			t.Errorf("OptionalInt(missing) = %v, %v", n, err)
		}
		if n, err := jsnative.OptionalNumber(h, 1, 0); err != nil || n != 2.5 {
			t.Errorf("OptionalNumber(present) = %v, %v", n, err)
		}
		if _, err := jsnative.OptionalBool(h, 0, false); err == nil {
			t.Error("OptionalBool accepted a string")
		}
	})
}
