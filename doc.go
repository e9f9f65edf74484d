// Package jsnative binds native Go classes into an embedded script
// interpreter that exposes a stack-based extension API.
//
// # Overview
//
// An interpreter heap is reached through the [Context] interface: push and pop
// values, read and write properties by string key, create native functions,
// register finalizers. On top of that interface jsnative provides:
//
//   - [Builder], which describes a class and materializes it as a script
//     constructor with a prototype
//   - trampolines that route `new` and method calls into Go
//   - [Instance], a type-keyed store of native state per constructed object
//   - a finalizer protocol that frees every native allocation exactly once
//
// Two heaps ship with the module: package memheap, a deterministic object
// heap with an explicit collector, and package gojahost, which runs real
// scripts on the goja engine.
//
// # Quick Start
//
//	reg := jsnative.NewRegistry(nil)
//	defer reg.Close()
//
//	type count struct{ n int }
//
//	b := jsnative.Build().
//	    Name("Counter").
//	    Method("incr", jsnative.MethodFunc(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
//	        c := jsnative.Entry[count](inst, nil)
//	        c.n++
//	        ctx.PushNumber(float64(c.n))
//	        return 1, nil
//	    }))
//	if err := reg.DefineGlobal(ctx, "Counter", b); err != nil {
//	    return err
//	}
//
//	// script:
//	// var c = new Counter();
//	// c.incr(); c.incr(); // 2
//
// # Constructors and Inheritance
//
// A custom constructor runs after the instance is allocated and before it is
// attached to the new object. If it fails, the error is raised in the script
// and the object is left without instance data: every later method call on it
// raises a ReferenceError.
//
//	b := jsnative.Build().
//	    Name("Greeter").
//	    Constructor(jsnative.Variadic(func(ctx jsnative.Context, inst *jsnative.Instance) (int, error) {
//	        name, err := jsnative.OptionalString(ctx, 0, "world")
//	        if err != nil {
//	            return 0, err
//	        }
//	        jsnative.Put(inst, greeting{name: name})
//	        return 0, nil
//	    }))
//
// Inherit links the new prototype to the prototype of a parent constructor on
// the stack and stores the parent prototype as `__super__`. There is no
// automatic super call; scripts dispatch through `this.__super__` explicitly.
//
// # Ownership
//
// Native allocations never cross into the interpreter as pointers. The
// [Registry] keeps them in a [HandleTable] and the interpreter only sees
// opaque handles stored under reserved keys. A trampoline checks an entry out
// for the duration of one call and checks it back in on every exit path,
// including a thrown error. Borrows nest, so a method may call back into the
// script and be entered again before it returns. Finalizers release entries; a second release of
// the same handle is detected and reported instead of freeing twice.
//
// # Errors
//
// Methods return Go errors. At the trampoline boundary an [*Error] is raised
// with the script constructor matching its [ErrorKind]: ArgumentTypeError as
// TypeError, ReferenceError as ReferenceError, everything else as Error.
// Broken protocol invariants are defects in the binding itself and panic
// with a [*ProtocolError].
//
// # Thread Safety
//
// A Registry and the heap it serves must be used from a single goroutine.
package jsnative
