package jsnative

import (
	"errors"
	"io"
	"reflect"
	"sort"
)

// Instance is the native state attached to one constructed script object.
//
// It holds at most one value per Go type, so independently written classes
// can keep strongly typed state on the same object without agreeing on a
// schema:
//
//	type counter struct{ n int }
//
//	jsnative.Put(inst, counter{})
//	if c, ok := jsnative.Ref[counter](inst); ok {
//	    c.n++
//	}
//
// Entries live as long as the Instance. When the owning object is finalized
// every stored value implementing io.Closer is closed.
type Instance struct {
	store map[reflect.Type]any // type -> *T
}

// NewInstance returns an empty Instance.
func NewInstance() *Instance {
	return &Instance{store: make(map[reflect.Type]any)}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Put stores v, replacing any value of the same type.
func Put[T any](i *Instance, v T) {
	p := new(T)
	*p = v
	i.store[typeKey[T]()] = p
}

// Get returns a copy of the stored value of type T.
func Get[T any](i *Instance) (T, bool) {
	if p, ok := i.store[typeKey[T]()]; ok {
		return *(p.(*T)), true
	}
	var zero T
	return zero, false
}

// Ref returns a pointer to the stored value of type T for in-place
// mutation.
func Ref[T any](i *Instance) (*T, bool) {
	if p, ok := i.store[typeKey[T]()]; ok {
		return p.(*T), true
	}
	return nil, false
}

// Entry returns a pointer to the stored value of type T, storing init() first
// if there is none. A nil init stores the zero value.
func Entry[T any](i *Instance, init func() T) *T {
	key := typeKey[T]()
	if p, ok := i.store[key]; ok {
		return p.(*T)
	}
	p := new(T)
	if init != nil {
		*p = init()
	}
	i.store[key] = p
	return p
}

// Remove deletes and returns the stored value of type T. The value is not
// closed.
func Remove[T any](i *Instance) (T, bool) {
	key := typeKey[T]()
	if p, ok := i.store[key]; ok {
		delete(i.store, key)
		return *(p.(*T)), true
	}
	var zero T
	return zero, false
}

// Has reports whether a value of type T is stored.
func Has[T any](i *Instance) bool {
	_, ok := i.store[typeKey[T]()]
	return ok
}

// Len returns the number of stored values.
func (i *Instance) Len() int { return len(i.store) }

// Types returns the names of the stored types, sorted.
func (i *Instance) Types() []string {
	names := make([]string, 0, len(i.store))
	for t := range i.store {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

// close closes every stored io.Closer and empties the store.
func (i *Instance) close() error {
	var errs []error
	for t, p := range i.store {
		v := reflect.ValueOf(p).Elem().Interface()
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		} else if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		delete(i.store, t)
	}
	return errors.Join(errs...)
}
