package memheap

import (
	"sort"

	"github.com/feather-lang/jsnative"
)

// objectAt returns the object at idx, or nil if the value is not an object.
func (h *Heap) objectAt(idx int) *object {
	if v := h.at(idx); v.typ == jsnative.TypeObject {
		return v.o
	}
	return nil
}

func (h *Heap) GetProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	if o == nil {
		h.PushUndefined()
		return false
	}
	p, ok := o.lookup(key)
	if !ok {
		h.PushUndefined()
		return false
	}
	h.push(p.v)
	return true
}

func (h *Heap) PutProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	v := h.pop()
	if o == nil {
		return false
	}
	if p, ok := o.own(key); ok {
		if p.flags&jsnative.PropWritable == 0 {
			return false
		}
		p.v = v
		return true
	}
	o.props[key] = &property{v: v, flags: defaultFlags}
	return true
}

func (h *Heap) HasProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	if o == nil {
		return false
	}
	_, ok := o.lookup(key)
	return ok
}

func (h *Heap) DelProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	if o == nil {
		return false
	}
	p, ok := o.own(key)
	if !ok {
		return true
	}
	if p.flags&jsnative.PropConfigurable == 0 {
		return false
	}
	delete(o.props, key)
	return true
}

func (h *Heap) DefProp(objIdx int, key string, flags jsnative.PropFlags) {
	o := h.objectAt(objIdx)
	v := h.pop()
	if o == nil {
		return
	}
	o.props[key] = &property{v: v, flags: flags}
}

func (h *Heap) GetPrototype(objIdx int) {
	o := h.objectAt(objIdx)
	if o == nil || o.proto == nil {
		h.PushUndefined()
		return
	}
	h.push(objectValue(o.proto))
}

// SetPrototype pops the new prototype. A value that would close a
// prototype cycle is ignored.
func (h *Heap) SetPrototype(objIdx int) {
	o := h.objectAt(objIdx)
	v := h.pop()
	if o == nil {
		return
	}
	switch v.typ {
	case jsnative.TypeObject:
		for cur := v.o; cur != nil; cur = cur.proto {
			if cur == o {
				h.log.Warningf("ignoring prototype cycle on object %d", o.id)
				return
			}
		}
		o.proto = v.o
	case jsnative.TypeNull, jsnative.TypeUndefined:
		o.proto = nil
	}
}

// SetFinalizer pops a function and makes it the finalizer of the object at
// objIdx. Popping undefined removes the finalizer.
func (h *Heap) SetFinalizer(objIdx int) {
	o := h.objectAt(objIdx)
	v := h.pop()
	if o == nil {
		return
	}
	if v.typ == jsnative.TypeObject && v.o.fn != nil {
		o.finalizer = v.o
		return
	}
	o.finalizer = nil
}

// OwnKeys returns the sorted own property names of the object at objIdx,
// hidden keys included.
func (h *Heap) OwnKeys(objIdx int) []string {
	o := h.objectAt(objIdx)
	if o == nil {
		return nil
	}
	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
