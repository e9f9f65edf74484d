package gojahost

import (
	"runtime"
	"sort"
	"sync"
	"weak"

	"github.com/dop251/goja"
)

// tracked is the native-side state of one script object: its hidden keys and
// its finalizer. Entries are keyed by a weak pointer, so they never keep the
// object alive.
type tracked struct {
	key    weak.Pointer[goja.Object]
	hidden map[string]slot
	fn     *goja.Object // finalizer, nil if none
	seq    uint64       // finalizer registration order
}

// deadQueue collects the keys of collected objects. Cleanups run on a
// runtime goroutine; the host drains the queue on its own goroutine.
type deadQueue struct {
	mu     sync.Mutex
	keys   []weak.Pointer[goja.Object]
	closed bool
}

func (q *deadQueue) push(key weak.Pointer[goja.Object]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.keys = append(q.keys, key)
	}
}

func (q *deadQueue) take() []weak.Pointer[goja.Object] {
	q.mu.Lock()
	defer q.mu.Unlock()
	keys := q.keys
	q.keys = nil
	return keys
}

func (q *deadQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.keys = nil
}

// lookup returns the state of o, or nil.
func (h *Host) lookup(o *goja.Object) *tracked {
	return h.objects[weak.Make(o)]
}

// track returns the state of o, creating it and registering a cleanup for o
// on first use.
func (h *Host) track(o *goja.Object) *tracked {
	key := weak.Make(o)
	if t := h.objects[key]; t != nil {
		return t
	}
	t := &tracked{key: key}
	h.objects[key] = t
	runtime.AddCleanup(o, h.dead.push, key)
	return t
}

// settle runs when control returns to the top level: no exception thrown by
// a native call can still be caught, and finalizers of collected objects
// can run.
func (h *Host) settle() {
	if len(h.frames) != 1 || h.closed {
		return
	}
	clear(h.thrown)
	h.drain()
}

// drain forgets collected objects and runs their finalizers. A finalizer
// receives a stand-in object carrying the hidden keys of the collected one.
func (h *Host) drain() {
	if h.draining {
		return
	}
	h.draining = true
	defer func() { h.draining = false }()

	for {
		keys := h.dead.take()
		if len(keys) == 0 {
			return
		}
		for _, key := range keys {
			t := h.objects[key]
			if t == nil {
				continue
			}
			delete(h.objects, key)
			if t.fn != nil {
				h.finalize(h.standIn(t), t)
			}
		}
	}
}

// standIn returns a fresh object holding the hidden keys of t.
func (h *Host) standIn(t *tracked) *goja.Object {
	o := h.vm.CreateObject(nil)
	if len(t.hidden) > 0 {
		h.track(o).hidden = t.hidden
	}
	return o
}

// Collect runs the Go garbage collector and then the finalizers of script
// objects found unreachable. Collection is not exhaustive: goja may still
// hold on to recently used objects.
func (h *Host) Collect() {
	if h.closed || len(h.frames) != 1 {
		return
	}
	runtime.GC()
	h.drain()
}

// pending returns the objects with a finalizer in registration order.
func (h *Host) pending() []*tracked {
	var ts []*tracked
	for _, t := range h.objects {
		if t.fn != nil {
			ts = append(ts, t)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].seq < ts[j].seq })
	return ts
}

func (h *Host) finalize(o *goja.Object, t *tracked) {
	fn := t.fn
	t.fn = nil
	h.pushValue(fn)
	h.PushUndefined()
	h.pushValue(o)
	if err := h.CallMethod(1); err != nil {
		h.log.Warningf("finalizer: %v", err)
	}
	h.Pop(1)
}

// Tracked returns the number of objects the host keeps native state for.
func (h *Host) Tracked() int { return len(h.objects) }
