package jsnative

import "strconv"

// RefID keeps a script value alive across native calls. The zero RefID stands
// for undefined.
type RefID uint32

// refsKey names the stash object holding referenced values. Slot "0" is the
// head of the free list, "length" the next unused slot.
const refsKey = HiddenPrefix + "refs"

// pushRefs pushes the refs object, creating it on first use.
func pushRefs(ctx Context) {
	ctx.PushGlobalStash()
	if !ctx.GetProp(-1, refsKey) {
		ctx.Pop(1)
		ctx.PushBareObject()
		ctx.PushNumber(0)
		ctx.PutProp(-2, "0")
		ctx.PushNumber(1)
		ctx.PutProp(-2, "length")
		ctx.Dup(-1)
		ctx.PutProp(-3, refsKey)
	}
	ctx.Remove(-2)
}

func refKey(r RefID) string { return strconv.FormatUint(uint64(r), 10) }

// MakeRef pops the value on top of the stack and returns a RefID for it. An
// undefined value yields the zero RefID.
//
//	ctx.Dup(0) // callback argument
//	cb := jsnative.MakeRef(ctx)
//	...
//	jsnative.PushRef(ctx, cb)
//	err := ctx.Call(0)
func MakeRef(ctx Context) RefID {
	switch ctx.Type(-1) {
	case TypeNone:
		return 0
	case TypeUndefined:
		ctx.Pop(1)
		return 0
	}

	pushRefs(ctx)
	ctx.GetProp(-1, "0")
	free := RefID(ctx.GetNumber(-1))
	ctx.Pop(1)
	if free != 0 {
		ctx.GetProp(-1, refKey(free))
		ctx.PutProp(-2, "0")
	} else {
		ctx.GetProp(-1, "length")
		free = RefID(ctx.GetNumber(-1))
		ctx.Pop(1)
		ctx.PushNumber(float64(free + 1))
		ctx.PutProp(-2, "length")
	}

	ctx.Swap(-1, -2)
	ctx.PutProp(-2, refKey(free))
	ctx.Pop(1)
	return free
}

// PushRef pushes the value behind r, or undefined for the zero RefID.
func PushRef(ctx Context, r RefID) {
	if r == 0 {
		ctx.PushUndefined()
		return
	}
	pushRefs(ctx)
	ctx.GetProp(-1, refKey(r))
	ctx.Remove(-2)
}

// Unref drops the value behind r and returns its slot to the free list. The
// RefID must not be used afterwards.
func Unref(ctx Context, r RefID) {
	if r == 0 {
		return
	}
	pushRefs(ctx)
	ctx.GetProp(-1, "0")
	ctx.PutProp(-2, refKey(r))
	ctx.PushNumber(float64(r))
	ctx.PutProp(-2, "0")
	ctx.Pop(1)
}
