package jsnative

import "math"

// Argument helpers for use inside Method implementations. Each returns an
// ArgumentTypeError naming the argument position and the expected type, so a
// method can simply return the error and let the trampoline raise it as a
// script TypeError.

func argError(idx int, want string, got Type) error {
	return TypeErrorf("argument %d: expected %s, got %s", idx, want, got)
}

// RequireString returns the string at idx.
func RequireString(ctx Context, idx int) (string, error) {
	if t := ctx.Type(idx); t != TypeString {
		return "", argError(idx, "string", t)
	}
	return ctx.GetString(idx), nil
}

// RequireNumber returns the number at idx.
func RequireNumber(ctx Context, idx int) (float64, error) {
	if t := ctx.Type(idx); t != TypeNumber {
		return 0, argError(idx, "number", t)
	}
	return ctx.GetNumber(idx), nil
}

// RequireInt returns the number at idx, which must be integral.
func RequireInt(ctx Context, idx int) (int, error) {
	f, err := RequireNumber(ctx, idx)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, TypeErrorf("argument %d: expected integer, got %v", idx, f)
	}
	return int(f), nil
}

// RequireBool returns the boolean at idx.
func RequireBool(ctx Context, idx int) (bool, error) {
	if t := ctx.Type(idx); t != TypeBool {
		return false, argError(idx, "boolean", t)
	}
	return ctx.GetBool(idx), nil
}

// RequireFunction checks that the value at idx is callable.
func RequireFunction(ctx Context, idx int) error {
	if !ctx.IsCallable(idx) {
		return argError(idx, "function", ctx.Type(idx))
	}
	return nil
}

// RequireObject checks that the value at idx is an object.
func RequireObject(ctx Context, idx int) error {
	if t := ctx.Type(idx); t != TypeObject {
		return argError(idx, "object", t)
	}
	return nil
}

func isAbsent(ctx Context, idx int) bool {
	switch ctx.Type(idx) {
	case TypeNone, TypeUndefined:
		return true
	}
	return false
}

// OptionalString is like RequireString but returns def when the argument is
// undefined or missing.
func OptionalString(ctx Context, idx int, def string) (string, error) {
	if isAbsent(ctx, idx) {
		return def, nil
	}
	return RequireString(ctx, idx)
}

// OptionalNumber is like RequireNumber but returns def when the argument is
// undefined or missing.
func OptionalNumber(ctx Context, idx int, def float64) (float64, error) {
	if isAbsent(ctx, idx) {
		return def, nil
	}
	return RequireNumber(ctx, idx)
}

// OptionalInt is like RequireInt but returns def when the argument is
// undefined or missing.
func OptionalInt(ctx Context, idx int, def int) (int, error) {
	if isAbsent(ctx, idx) {
		return def, nil
	}
	return RequireInt(ctx, idx)
}

// OptionalBool is like RequireBool but returns def when the argument is
// undefined or missing.
func OptionalBool(ctx Context, idx int, def bool) (bool, error) {
	if isAbsent(ctx, idx) {
		return def, nil
	}
	return RequireBool(ctx, idx)
}
