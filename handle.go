package jsnative

import "fmt"

// Handle is an opaque reference to a native allocation owned by a
// [HandleTable]. The low 32 bits index a slot, the high 32 bits carry the
// slot's generation so that a handle outliving its entry is detected
// instead of aliasing whatever reuses the slot. The zero Handle is invalid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index(), h.gen())
}

// Kind tags the allocation class stored behind a handle.
type Kind uint8

const (
	KindConstructor Kind = iota + 1
	KindMethod
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindMethod:
		return "method"
	case KindInstance:
		return "instance"
	default:
		return "unknown"
	}
}

type slotState uint8

const (
	slotFree slotState = iota
	slotResident
	slotCheckedOut
)

type slot struct {
	gen     uint32
	state   slotState
	borrows int // active checkouts, > 0 iff state == slotCheckedOut
	kind    Kind
	value   any
	next    uint32 // free list link, valid while state == slotFree
}

// HandleTable owns native allocations referenced from script objects.
//
// Every entry is either resident (owned by the table, reachable only through
// its handle) or checked out (borrowed by at least one active native call).
// Checkout and Checkin bracket a borrow and nest: a method that calls back
// into the script can be entered again before it returns, and the entry
// becomes resident when the outermost borrow is checked in. Release frees a
// resident entry exactly once and refuses a borrowed one.
//
// Freed slots are kept on a free list and reused with a bumped generation.
// A HandleTable is not safe for concurrent use.
type HandleTable struct {
	slots      []slot // slots[0] is never used so the zero Handle stays invalid
	free       uint32 // head of the free list, 0 when empty
	live       int
	checkedOut int
}

// NewHandleTable returns an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{slots: make([]slot, 1, 16)}
}

// Insert stores v as a resident entry and returns its handle.
func (t *HandleTable) Insert(kind Kind, v any) Handle {
	var idx uint32
	if t.free != 0 {
		idx = t.free
		t.free = t.slots[idx].next
	} else {
		t.slots = append(t.slots, slot{})
		idx = uint32(len(t.slots) - 1)
	}
	s := &t.slots[idx]
	s.gen++
	s.state = slotResident
	s.borrows = 0
	s.kind = kind
	s.value = v
	s.next = 0
	t.live++
	return makeHandle(idx, s.gen)
}

func (t *HandleTable) lookup(h Handle) (*slot, error) {
	idx := h.index()
	if h == 0 || int(idx) >= len(t.slots) {
		return nil, fmt.Errorf("%w: %v", ErrStaleHandle, h)
	}
	s := &t.slots[idx]
	if s.state == slotFree || s.gen != h.gen() {
		return nil, fmt.Errorf("%w: %v", ErrStaleHandle, h)
	}
	return s, nil
}

// Checkout borrows a live entry. Borrows nest; each Checkout must be paired
// with one Checkin.
func (t *HandleTable) Checkout(h Handle) (any, error) {
	s, err := t.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.borrows == 0 {
		s.state = slotCheckedOut
		t.checkedOut++
	}
	s.borrows++
	return s.value, nil
}

// Checkin ends one borrow. The entry is resident again once every borrow
// has been checked in.
func (t *HandleTable) Checkin(h Handle) error {
	s, err := t.lookup(h)
	if err != nil {
		return err
	}
	if s.borrows == 0 {
		return fmt.Errorf("%w: %v", ErrNotCheckedOut, h)
	}
	s.borrows--
	if s.borrows == 0 {
		s.state = slotResident
		t.checkedOut--
	}
	return nil
}

// Borrows returns the number of active checkouts of h, or 0 if h is stale.
func (t *HandleTable) Borrows(h Handle) int {
	s, err := t.lookup(h)
	if err != nil {
		return 0
	}
	return s.borrows
}

// Peek returns the value of a live entry without changing its state.
func (t *HandleTable) Peek(h Handle) (Kind, any, error) {
	s, err := t.lookup(h)
	if err != nil {
		return 0, nil, err
	}
	return s.kind, s.value, nil
}

// Release removes a resident entry and returns its value. Releasing a
// checked-out entry fails with ErrCheckedOut; releasing twice fails with
// ErrStaleHandle.
func (t *HandleTable) Release(h Handle) (Kind, any, error) {
	s, err := t.lookup(h)
	if err != nil {
		return 0, nil, err
	}
	if s.state == slotCheckedOut {
		return 0, nil, fmt.Errorf("%w: %v", ErrCheckedOut, h)
	}
	kind, v := s.kind, s.value
	s.state = slotFree
	s.kind = 0
	s.value = nil
	s.next = t.free
	t.free = h.index()
	t.live--
	return kind, v, nil
}

// Live returns the number of entries not yet released.
func (t *HandleTable) Live() int { return t.live }

// CheckedOut returns the number of entries with at least one borrow.
func (t *HandleTable) CheckedOut() int { return t.checkedOut }

// Handles returns the handles of all live entries in slot order.
func (t *HandleTable) Handles() []Handle {
	hs := make([]Handle, 0, t.live)
	for idx := 1; idx < len(t.slots); idx++ {
		s := &t.slots[idx]
		if s.state != slotFree {
			hs = append(hs, makeHandle(uint32(idx), s.gen))
		}
	}
	return hs
}
