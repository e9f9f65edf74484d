package jsnative

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// Config configures a Registry.
type Config struct {
	// LogName is the commonlog logger name. Defaults to "jsnative".
	LogName string

	// StrictProtocol makes finalizers panic with a *ProtocolError when they
	// find a handle in the wrong state. When false the violation is logged
	// and the finalizer returns without freeing anything.
	StrictProtocol bool
}

// DefaultConfig returns the configuration used by NewRegistry(nil).
func DefaultConfig() *Config {
	return &Config{LogName: "jsnative"}
}

// Counter tracks allocations of one kind.
type Counter struct {
	Allocated int
	Freed     int
}

// Live returns the number of allocations not yet freed.
func (c Counter) Live() int { return c.Allocated - c.Freed }

// Stats reports allocation counts per kind.
type Stats struct {
	Constructors Counter
	Methods      Counter
	Instances    Counter
}

func (s *Stats) counter(k Kind) *Counter {
	switch k {
	case KindConstructor:
		return &s.Constructors
	case KindMethod:
		return &s.Methods
	default:
		return &s.Instances
	}
}

// Registry is the binding state for one interpreter heap. It owns the
// handle table behind every reserved key written by the classes it
// materializes.
//
// Create one Registry per heap, materialize classes through it, and close it
// after the heap has been torn down:
//
//	reg := jsnative.NewRegistry(nil)
//	defer reg.Close()
//
//	b := jsnative.Build().Name("Counter").Method("incr", incr)
//	if err := reg.DefineGlobal(ctx, "Counter", b); err != nil {
//	    return err
//	}
//
// A Registry is not safe for concurrent use.
type Registry struct {
	cfg     Config
	log     commonlog.Logger
	handles *HandleTable
	stats   Stats
	shared  *Instance
	closed  bool
}

// NewRegistry creates a Registry. A nil cfg uses DefaultConfig.
func NewRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.LogName == "" {
		c.LogName = "jsnative"
	}
	return &Registry{
		cfg:     c,
		log:     commonlog.GetLogger(c.LogName),
		handles: NewHandleTable(),
		shared:  NewInstance(),
	}
}

// Stats returns the current allocation counts.
func (r *Registry) Stats() Stats { return r.stats }

// Handles exposes the registry's handle table for inspection.
func (r *Registry) Handles() *HandleTable { return r.handles }

// Shared returns the heap-wide store, for native state that belongs to the
// interpreter rather than to one object.
func (r *Registry) Shared() *Instance { return r.shared }

// Close releases every allocation still resident and the shared store.
// Call it after the heap has been torn down; anything still live at that
// point was never finalized and is reported as a leak.
func (r *Registry) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true

	leaked := 0
	for _, h := range r.handles.Handles() {
		kind, v, err := r.handles.Release(h)
		if err != nil {
			r.log.Errorf("release %v at close: %v", h, err)
			continue
		}
		leaked++
		r.free(kind, v)
	}
	if leaked > 0 {
		r.log.Warningf("%d native allocations were never finalized", leaked)
	}
	if err := r.shared.close(); err != nil {
		r.log.Errorf("closing shared store: %v", err)
	}
	return nil
}

// box stores v in the handle table and counts the allocation. Instances are
// counted by newInstance, before they are attached.
func (r *Registry) box(kind Kind, v any) Handle {
	h := r.handles.Insert(kind, v)
	if kind != KindInstance {
		r.stats.counter(kind).Allocated++
	}
	r.log.Debugf("boxed %s %v", kind, h)
	return h
}

// free accounts for a released allocation and runs its drop logic.
func (r *Registry) free(kind Kind, v any) {
	r.stats.counter(kind).Freed++
	if inst, ok := v.(*Instance); ok {
		if err := inst.close(); err != nil {
			r.log.Errorf("closing instance data: %v", err)
		}
	}
}

// newInstance allocates an unattached Instance.
func (r *Registry) newInstance() *Instance {
	r.stats.Instances.Allocated++
	return NewInstance()
}

// dropInstance frees an Instance that never made it into the table.
func (r *Registry) dropInstance(inst *Instance) {
	r.log.Debugf("dropping unattached instance")
	r.free(KindInstance, inst)
}

func (r *Registry) checkoutMethod(op string, h Handle) *boxedMethod {
	v, err := r.handles.Checkout(h)
	if err != nil {
		panic(&ProtocolError{Op: op, Err: err})
	}
	bm, ok := v.(*boxedMethod)
	if !ok {
		r.checkin(op, h)
		panic(&ProtocolError{Op: op, Err: fmt.Errorf("handle %v holds %T", h, v)})
	}
	return bm
}

func (r *Registry) checkin(op string, h Handle) {
	if err := r.handles.Checkin(h); err != nil {
		panic(&ProtocolError{Op: op, Err: err})
	}
}

// violation handles a protocol error found where unwinding is not wanted.
func (r *Registry) violation(op string, err error) {
	if r.cfg.StrictProtocol {
		panic(&ProtocolError{Op: op, Err: err})
	}
	r.log.Warningf("protocol violation in %s: %v", op, err)
}
