package memheap

import (
	"fmt"
	"strconv"

	"github.com/feather-lang/jsnative"
)

// value is a tagged stack or property value.
type value struct {
	typ jsnative.Type
	b   bool
	n   float64
	s   string
	h   jsnative.Handle
	o   *object
}

var undefined = value{typ: jsnative.TypeUndefined}

func objectValue(o *object) value { return value{typ: jsnative.TypeObject, o: o} }

// String renders v for debugging and error messages.
func (v value) String() string {
	switch v.typ {
	case jsnative.TypeUndefined:
		return "undefined"
	case jsnative.TypeNull:
		return "null"
	case jsnative.TypeBool:
		return strconv.FormatBool(v.b)
	case jsnative.TypeNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case jsnative.TypeString:
		return v.s
	case jsnative.TypeHandle:
		return v.h.String()
	case jsnative.TypeObject:
		if v.o.fn != nil {
			return fmt.Sprintf("[function %d]", v.o.id)
		}
		return fmt.Sprintf("[object %d]", v.o.id)
	default:
		return "none"
	}
}

type property struct {
	v     value
	flags jsnative.PropFlags
}

const defaultFlags = jsnative.PropWritable | jsnative.PropEnumerable | jsnative.PropConfigurable

type native struct {
	fn    jsnative.Func
	nargs int
}

// object is a heap object. Objects with a non-nil fn are callable.
type object struct {
	id        uint64
	props     map[string]*property
	proto     *object
	fn        *native
	finalizer *object
	finalized bool
	marked    bool
}

func (o *object) own(key string) (*property, bool) {
	p, ok := o.props[key]
	return p, ok
}

// lookup finds key on o or its prototype chain.
func (o *object) lookup(key string) (*property, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if p, ok := cur.props[key]; ok {
			return p, true
		}
	}
	return nil, false
}
