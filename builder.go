package jsnative

import "sort"

// Reserved property keys. The "\xff" prefix is not valid UTF-8, so no script
// source can spell these names.
const (
	HiddenPrefix = "\xff"
	MethodKey    = HiddenPrefix + "method"
	InstanceKey  = HiddenPrefix + "instance"
	CtorKey      = HiddenPrefix + "ctor"
)

// SuperKey is the script-visible property through which the prototype of an
// inherited class refers to its parent's prototype. There is no automatic
// super call; scripts dispatch explicitly:
//
//	Child.prototype.greet = function () {
//	    return this.__super__.greet.call(this) + "!";
//	};
const SuperKey = "__super__"

// Builder accumulates the definition of a native class. Obtain one with
// Build, chain Name/Method/Constructor/Inherit, then materialize it with
// Registry.Push, Registry.Define or Registry.DefineGlobal. A Builder can be
// materialized once.
type Builder struct {
	name      string
	ctor      Method
	parent    int
	hasParent bool
	methods   map[string]Method
	consumed  bool
}

// Build starts a new class definition.
func Build() *Builder {
	return &Builder{methods: make(map[string]Method)}
}

// Name sets the class name, exposed as the constructor's "name" property.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Method registers a method on the prototype. Registering the same name
// again replaces the earlier method.
func (b *Builder) Method(name string, m Method) *Builder {
	b.methods[name] = m
	return b
}

// Constructor sets custom logic run by every `new` after the instance is
// allocated and before it is attached. Its result count is ignored.
func (b *Builder) Constructor(m Method) *Builder {
	b.ctor = m
	return b
}

// Inherit makes the class inherit from the constructor at stack index
// parentIdx. The index is resolved when the builder is materialized and must
// still refer to the parent constructor then.
func (b *Builder) Inherit(parentIdx int) *Builder {
	b.parent = parentIdx
	b.hasParent = true
	return b
}

// Push materializes b and leaves the class constructor on top of the stack.
// It consumes b.
func (r *Registry) Push(ctx Context, b *Builder) error {
	if r.closed {
		return ErrClosed
	}
	if b.consumed {
		return ErrBuilderConsumed
	}

	parent := 0
	if b.hasParent {
		if b.parent >= ctx.Top() || b.parent < -ctx.Top() {
			return TypeErrorf("inherit: invalid stack index %d", b.parent)
		}
		parent = ctx.Normalize(b.parent)
		if !ctx.IsCallable(parent) {
			return TypeErrorf("inherit: value at %d is a %s, not a constructor", b.parent, ctx.Type(parent))
		}
	}
	b.consumed = true

	ctx.PushFunction(r.construct, VarArgs)

	if b.name != "" {
		ctx.PushString(b.name)
		ctx.DefProp(-2, "name", PropWritable)
	}

	ctx.PushObject()
	if b.hasParent {
		ctx.GetProp(parent, "prototype")
		ctx.Dup(-1)
		ctx.SetPrototype(-3)
		ctx.PutProp(-2, SuperKey)
	}

	names := make([]string, 0, len(b.methods))
	for name := range b.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.pushMethod(ctx, b.name, name, b.methods[name])
		ctx.PutProp(-2, name)
	}

	ctx.PutProp(-2, "prototype")

	if b.ctor != nil {
		h := r.box(KindConstructor, &boxedMethod{class: b.name, name: "constructor", method: b.ctor})
		ctx.PushHandle(h)
		ctx.PutProp(-2, CtorKey)
	}

	ctx.PushFunction(r.finalizeConstructor, 1)
	ctx.SetFinalizer(-2)
	return nil
}

// Define materializes b and stores the constructor as obj[name].
func (r *Registry) Define(ctx Context, objIdx int, name string, b *Builder) error {
	objIdx = ctx.Normalize(objIdx)
	if b.name == "" {
		b.name = name
	}
	if err := r.Push(ctx, b); err != nil {
		return err
	}
	ctx.PutProp(objIdx, name)
	return nil
}

// DefineGlobal materializes b and stores the constructor as a global.
//
//	b := jsnative.Build().
//	    Method("greet", jsnative.WithArity(1, greet))
//	if err := reg.DefineGlobal(ctx, "Greeter", b); err != nil {
//	    return err
//	}
//	// script: new Greeter().greet("me")
func (r *Registry) DefineGlobal(ctx Context, name string, b *Builder) error {
	ctx.PushGlobalObject()
	defer ctx.Pop(1)
	return r.Define(ctx, -1, name, b)
}

// pushMethod pushes a method function carrying a boxed Method.
func (r *Registry) pushMethod(ctx Context, class, name string, m Method) {
	ctx.PushFunction(r.dispatch, m.Arity())
	ctx.PushString(name)
	ctx.DefProp(-2, "name", PropConfigurable)
	h := r.box(KindMethod, &boxedMethod{class: class, name: name, method: m})
	ctx.PushHandle(h)
	ctx.PutProp(-2, MethodKey)
	ctx.PushFunction(r.finalizeMethod, 1)
	ctx.SetFinalizer(-2)
}
