package gojahost

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/feather-lang/jsnative"
)

func hiddenKey(key string) bool { return strings.HasPrefix(key, jsnative.HiddenPrefix) }

func (h *Host) objectAt(idx int) *goja.Object {
	s := h.at(idx)
	if s.isH {
		return nil
	}
	o, _ := s.v.(*goja.Object)
	return o
}

// lookupHidden resolves a hidden key along the prototype chain.
func (h *Host) lookupHidden(o *goja.Object, key string) (slot, bool) {
	for cur := o; cur != nil; cur = cur.Prototype() {
		if t := h.lookup(cur); t != nil {
			if s, ok := t.hidden[key]; ok {
				return s, true
			}
		}
	}
	return slot{}, false
}

// putHidden stores a hidden key. Values are held strongly: a hidden value
// referring back to its object keeps the object alive.
func (h *Host) putHidden(o *goja.Object, key string, s slot) {
	t := h.track(o)
	if t.hidden == nil {
		t.hidden = make(map[string]slot)
	}
	t.hidden[key] = s
}

func (h *Host) GetProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	if o == nil {
		h.PushUndefined()
		return false
	}
	if hiddenKey(key) {
		s, ok := h.lookupHidden(o, key)
		if !ok {
			h.PushUndefined()
			return false
		}
		h.push(s)
		return true
	}
	v := o.Get(key)
	if v == nil {
		h.PushUndefined()
		return false
	}
	h.pushValue(v)
	return true
}

func (h *Host) PutProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	s := h.pop()
	if o == nil {
		return false
	}
	if hiddenKey(key) {
		h.putHidden(o, key, s)
		return true
	}
	if err := o.Set(key, h.value(s)); err != nil {
		h.log.Debugf("put %q: %v", key, err)
		return false
	}
	return true
}

func (h *Host) HasProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	if o == nil {
		return false
	}
	if hiddenKey(key) {
		_, ok := h.lookupHidden(o, key)
		return ok
	}
	return o.Get(key) != nil
}

func (h *Host) DelProp(objIdx int, key string) bool {
	o := h.objectAt(objIdx)
	if o == nil {
		return false
	}
	if hiddenKey(key) {
		if t := h.lookup(o); t != nil {
			delete(t.hidden, key)
		}
		return true
	}
	return o.Delete(key) == nil
}

func flag(b bool) goja.Flag {
	if b {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}

func (h *Host) DefProp(objIdx int, key string, flags jsnative.PropFlags) {
	o := h.objectAt(objIdx)
	s := h.pop()
	if o == nil {
		return
	}
	if hiddenKey(key) {
		h.putHidden(o, key, s)
		return
	}
	err := o.DefineDataProperty(key, h.value(s),
		flag(flags&jsnative.PropWritable != 0),
		flag(flags&jsnative.PropConfigurable != 0),
		flag(flags&jsnative.PropEnumerable != 0))
	if err != nil {
		h.log.Warningf("define %q: %v", key, err)
	}
}

func (h *Host) GetPrototype(objIdx int) {
	o := h.objectAt(objIdx)
	if o == nil {
		h.PushUndefined()
		return
	}
	if p := o.Prototype(); p != nil {
		h.pushValue(p)
		return
	}
	h.PushUndefined()
}

func (h *Host) SetPrototype(objIdx int) {
	o := h.objectAt(objIdx)
	s := h.pop()
	if o == nil {
		return
	}
	var proto *goja.Object
	if !s.isH {
		proto, _ = s.v.(*goja.Object)
	}
	if err := o.SetPrototype(proto); err != nil {
		h.log.Warningf("set prototype: %v", err)
	}
}

// SetFinalizer pops a function and registers it for the object at objIdx.
// Replacing a finalizer keeps the original registration order; a value that
// is not a function removes it.
func (h *Host) SetFinalizer(objIdx int) {
	o := h.objectAt(objIdx)
	s := h.pop()
	if o == nil {
		return
	}
	var fn *goja.Object
	if !s.isH {
		if _, ok := goja.AssertFunction(s.v); ok {
			fn = s.v.(*goja.Object)
		}
	}
	if fn == nil {
		if t := h.lookup(o); t != nil {
			t.fn = nil
		}
		return
	}
	t := h.track(o)
	if t.fn == nil {
		h.seq++
		t.seq = h.seq
	}
	t.fn = fn
}
