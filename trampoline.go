package jsnative

// construct backs every class constructor. It runs once per `new`.
func (r *Registry) construct(ctx Context) int {
	if r.closed {
		return ctx.Throw(Errorf("%v", ErrClosed))
	}
	ctx.PushCurrentFunction()
	class := r.className(ctx, -1)
	if !ctx.IsConstructCall() {
		ctx.Pop(1)
		return ctx.Throw(TypeErrorf("class constructor %s cannot be invoked without 'new'", class))
	}

	ctorHandle, hasCtor := Handle(0), false
	if ctx.HasProp(-1, CtorKey) {
		ctx.GetProp(-1, CtorKey)
		ctorHandle, hasCtor = ctx.GetHandle(-1)
		ctx.Pop(1)
		if !hasCtor {
			ctx.Pop(1)
			panic(&ProtocolError{Op: "construct " + class, Err: ErrStaleHandle})
		}
	}
	ctx.Pop(1)

	inst := r.newInstance()
	attached := false
	defer func() {
		if !attached {
			r.dropInstance(inst)
		}
	}()

	if hasCtor {
		if err := r.runConstructor(ctx, ctorHandle, inst); err != nil {
			return ctx.Throw(ConstructorErrorf(err, "%s: constructor failed", class))
		}
	}

	ctx.PushThis()
	h := r.box(KindInstance, inst)
	attached = true
	ctx.PushHandle(h)
	ctx.PutProp(-2, InstanceKey)
	ctx.PushFunction(r.finalizeInstance, 1)
	ctx.SetFinalizer(-2)
	ctx.Pop(1)
	return 0
}

// runConstructor checks the boxed constructor out for the duration of one
// call. The deferred checkin also runs when the constructor throws.
func (r *Registry) runConstructor(ctx Context, h Handle, inst *Instance) error {
	bm := r.checkoutMethod("construct", h)
	defer r.checkin("construct", h)
	_, err := bm.method.Call(ctx, inst)
	return err
}

// dispatch backs every bound method.
func (r *Registry) dispatch(ctx Context) int {
	if r.closed {
		return ctx.Throw(Errorf("%v", ErrClosed))
	}
	ctx.PushCurrentFunction()
	if !ctx.GetProp(-1, MethodKey) {
		ctx.Pop(2)
		panic(&ProtocolError{Op: "dispatch", Err: errMissingKey(MethodKey)})
	}
	mh, ok := ctx.GetHandle(-1)
	ctx.Pop(2)
	if !ok {
		panic(&ProtocolError{Op: "dispatch", Err: errMissingKey(MethodKey)})
	}

	bm := r.checkoutMethod("dispatch", mh)
	defer r.checkin("dispatch", mh)

	ctx.PushThis()
	if !ctx.HasProp(-1, InstanceKey) {
		ctx.Pop(1)
		return ctx.Throw(ReferenceErrorf("%s: receiver is not an instance of a native class", bm.qualifiedName()))
	}
	ctx.GetProp(-1, InstanceKey)
	ih, ok := ctx.GetHandle(-1)
	ctx.Pop(2)
	if !ok {
		return ctx.Throw(ReferenceErrorf("%s: receiver is not an instance of a native class", bm.qualifiedName()))
	}

	v, err := r.handles.Checkout(ih)
	if err != nil {
		// A finalized object that script code still reaches.
		return ctx.Throw(ReferenceErrorf("%s: instance data is gone: %v", bm.qualifiedName(), err))
	}
	defer r.checkin("dispatch", ih)
	inst, ok := v.(*Instance)
	if !ok {
		return ctx.Throw(ReferenceErrorf("%s: receiver is not an instance of a native class", bm.qualifiedName()))
	}

	n, err := bm.method.Call(ctx, inst)
	if err != nil {
		return ctx.Throw(err)
	}
	return n
}

// className reads the "name" property of the function at idx.
func (r *Registry) className(ctx Context, idx int) string {
	ctx.GetProp(idx, "name")
	defer ctx.Pop(1)
	if ctx.Type(-1) == TypeString {
		if name := ctx.GetString(-1); name != "" {
			return name
		}
	}
	return "<anonymous>"
}

// ---------------------------------------------------------------------------
// Finalizers
// ---------------------------------------------------------------------------

// finalizeConstructor frees the boxed custom constructor of a class when the
// constructor function itself is collected.
func (r *Registry) finalizeConstructor(ctx Context) int {
	r.release(ctx, "constructor finalizer", CtorKey, KindConstructor)
	return 0
}

// finalizeMethod frees the boxed Method of a method function.
func (r *Registry) finalizeMethod(ctx Context) int {
	r.release(ctx, "method finalizer", MethodKey, KindMethod)
	return 0
}

// finalizeInstance frees the Instance of a constructed object.
func (r *Registry) finalizeInstance(ctx Context) int {
	r.release(ctx, "instance finalizer", InstanceKey, KindInstance)
	return 0
}

// release frees the allocation behind key on the object at index 0. Objects
// that never received that key (a class without a custom constructor, an
// object whose constructor failed) are left alone. The key is deleted so a
// second run finds nothing.
func (r *Registry) release(ctx Context, op, key string, want Kind) {
	if r.closed || !ctx.HasProp(0, key) {
		return
	}
	ctx.GetProp(0, key)
	h, ok := ctx.GetHandle(-1)
	ctx.Pop(1)
	ctx.DelProp(0, key)
	if !ok {
		r.violation(op, errMissingKey(key))
		return
	}

	kind, v, err := r.handles.Release(h)
	if err != nil {
		r.violation(op, err)
		return
	}
	if kind != want {
		r.violation(op, errWrongKind(h, kind, want))
	}
	r.log.Debugf("%s: freed %s %v", op, kind, h)
	r.free(kind, v)
}
