// Package visit implements the structured traversal used for save and load.
// A single Visit method per type both writes and reads: in write mode the
// visitor records field values into a tree, in read mode it copies them back
// out of a previously decoded tree. Field order is preserved in the tree.
package visit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fragcore/arena/internal/geom"
)

var (
	ErrFieldNotFound  = errors.New("field not found")
	ErrRegionNotFound = errors.New("region not found")
	ErrKindMismatch   = errors.New("field kind mismatch")
	ErrUnbalanced     = errors.New("leave region without enter")
	ErrCountRange     = errors.New("count out of range")
)

// MaxCount bounds the lengths read back by Count.
const MaxCount = 1 << 20

// Kind tags the primitive stored in a Field.
type Kind uint8

const (
	KindFloat Kind = iota + 1
	KindInt
	KindString
	KindBool
)

// Field is one named primitive value.
type Field struct {
	Name string  `msgpack:"n"`
	Kind Kind    `msgpack:"k"`
	F    float64 `msgpack:"f,omitempty"`
	I    int64   `msgpack:"i,omitempty"`
	S    string  `msgpack:"s,omitempty"`
}

// Node is a named region holding fields and nested regions.
type Node struct {
	Name     string  `msgpack:"n"`
	Fields   []Field `msgpack:"f,omitempty"`
	Children []*Node `msgpack:"c,omitempty"`
}

func (n *Node) field(name string) (*Field, bool) {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return &n.Fields[i], true
		}
	}
	return nil, false
}

func (n *Node) child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Visitor walks a Node tree in either direction.
type Visitor struct {
	reading bool
	root    *Node
	stack   []*Node
}

// NewWriter returns a visitor that records into a fresh tree.
func NewWriter() *Visitor {
	root := &Node{Name: "Root"}
	return &Visitor{root: root, stack: []*Node{root}}
}

// NewReader returns a visitor that reads from root.
func NewReader(root *Node) *Visitor {
	return &Visitor{reading: true, root: root, stack: []*Node{root}}
}

func (v *Visitor) IsReading() bool { return v.reading }
func (v *Visitor) Root() *Node     { return v.root }

func (v *Visitor) top() *Node { return v.stack[len(v.stack)-1] }

func (v *Visitor) path() string {
	names := make([]string, 0, len(v.stack))
	for _, n := range v.stack {
		names = append(names, n.Name)
	}
	return strings.Join(names, "/")
}

// EnterRegion descends into the named region.
func (v *Visitor) EnterRegion(name string) error {
	cur := v.top()
	if v.reading {
		c, ok := cur.child(name)
		if !ok {
			return fmt.Errorf("%s/%s: %w", v.path(), name, ErrRegionNotFound)
		}
		v.stack = append(v.stack, c)
		return nil
	}
	c := &Node{Name: name}
	cur.Children = append(cur.Children, c)
	v.stack = append(v.stack, c)
	return nil
}

// LeaveRegion returns to the parent region.
func (v *Visitor) LeaveRegion() error {
	if len(v.stack) <= 1 {
		return ErrUnbalanced
	}
	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

// Region runs fn inside the named region.
func (v *Visitor) Region(name string, fn func() error) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return v.LeaveRegion()
}

func (v *Visitor) lookup(name string, kind Kind) (*Field, error) {
	f, ok := v.top().field(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", v.path(), name, ErrFieldNotFound)
	}
	if f.Kind != kind {
		return nil, fmt.Errorf("%s.%s: %w", v.path(), name, ErrKindMismatch)
	}
	return f, nil
}

func (v *Visitor) put(f Field) {
	cur := v.top()
	cur.Fields = append(cur.Fields, f)
}

func (v *Visitor) Float(name string, p *float64) error {
	if !v.reading {
		v.put(Field{Name: name, Kind: KindFloat, F: *p})
		return nil
	}
	f, err := v.lookup(name, KindFloat)
	if err != nil {
		return err
	}
	*p = f.F
	return nil
}

func (v *Visitor) Int(name string, p *int) error {
	if !v.reading {
		v.put(Field{Name: name, Kind: KindInt, I: int64(*p)})
		return nil
	}
	f, err := v.lookup(name, KindInt)
	if err != nil {
		return err
	}
	*p = int(f.I)
	return nil
}

// Count visits a length field. Read values outside [0, MaxCount] fail with
// ErrCountRange so a damaged save cannot size an allocation.
func (v *Visitor) Count(name string, p *int) error {
	if err := v.Int(name, p); err != nil {
		return err
	}
	if v.reading && (*p < 0 || *p > MaxCount) {
		return fmt.Errorf("%s.%s: %d: %w", v.path(), name, *p, ErrCountRange)
	}
	return nil
}

func (v *Visitor) Uint32(name string, p *uint32) error {
	if !v.reading {
		v.put(Field{Name: name, Kind: KindInt, I: int64(*p)})
		return nil
	}
	f, err := v.lookup(name, KindInt)
	if err != nil {
		return err
	}
	if f.I < 0 || f.I > int64(^uint32(0)) {
		return fmt.Errorf("%s.%s: value %d out of uint32 range", v.path(), name, f.I)
	}
	*p = uint32(f.I)
	return nil
}

func (v *Visitor) String(name string, p *string) error {
	if !v.reading {
		v.put(Field{Name: name, Kind: KindString, S: *p})
		return nil
	}
	f, err := v.lookup(name, KindString)
	if err != nil {
		return err
	}
	*p = f.S
	return nil
}

func (v *Visitor) Bool(name string, p *bool) error {
	if !v.reading {
		var i int64
		if *p {
			i = 1
		}
		v.put(Field{Name: name, Kind: KindBool, I: i})
		return nil
	}
	f, err := v.lookup(name, KindBool)
	if err != nil {
		return err
	}
	*p = f.I != 0
	return nil
}

// Vec3 stores a vector as a region with X, Y and Z fields.
func (v *Visitor) Vec3(name string, p *geom.Vec3) error {
	return v.Region(name, func() error {
		if err := v.Float("X", &p.X); err != nil {
			return err
		}
		if err := v.Float("Y", &p.Y); err != nil {
			return err
		}
		return v.Float("Z", &p.Z)
	})
}

// OptionalFloat stores a *float64 as a presence flag plus value.
func (v *Visitor) OptionalFloat(name string, p **float64) error {
	return v.Region(name, func() error {
		has := *p != nil
		if err := v.Bool("Some", &has); err != nil {
			return err
		}
		if !has {
			*p = nil
			return nil
		}
		var val float64
		if *p != nil {
			val = **p
		}
		if err := v.Float("Value", &val); err != nil {
			return err
		}
		*p = &val
		return nil
	})
}
