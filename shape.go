package cborgen

import "reflect"

// Shape is the structural description of a type: a sum of variants, each a
// product of fields. Shapes are built once at registration, are immutable,
// and are shared read-only across all encode/decode calls for the type.
//
// The five node kinds mirror the usual algebra: void (zero variants), unit
// (one variant, no fields), leaf (one variant, one field), product (field
// concatenation) and sum (variant concatenation). Variant numbering is the
// in-order flattening of the sum tree, fixed by registration order; both
// ends of the wire recompute it identically from the shape alone.
type Shape interface {
	// Variants reports the number of constructors reachable through the shape.
	Variants() int
	isShape()
}

type voidShape struct{}

type unitShape struct {
	variant *variantInfo
}

type leafShape struct {
	elem    elemCodec
	variant *variantInfo // non-nil only at a variant root
}

type productShape struct {
	left, right Shape
	variant     *variantInfo // non-nil only at a variant root
}

type sumShape struct {
	left, right Shape
	leftCount   int
	total       int
}

func (voidShape) isShape()     {}
func (*unitShape) isShape()    {}
func (*leafShape) isShape()    {}
func (*productShape) isShape() {}
func (*sumShape) isShape()     {}

func (voidShape) Variants() int     { return 0 }
func (*unitShape) Variants() int    { return 1 }
func (*leafShape) Variants() int    { return 1 }
func (*productShape) Variants() int { return 1 }
func (s *sumShape) Variants() int   { return s.total }

// variantInfo ties one variant subtree to the concrete Go type it decodes
// into. fields holds the struct field indices in declaration order; the
// leaf nodes of the variant subtree consume them positionally.
type variantInfo struct {
	index  int // global variant index
	typ    reflect.Type
	shape  Shape // unit/leaf/product subtree of this variant
	fields []int
}

// arity reports the field count of a variant subtree.
func arity(s Shape) int {
	switch s := s.(type) {
	case *unitShape:
		return 0
	case *leafShape:
		return 1
	case *productShape:
		return arity(s.left) + arity(s.right)
	default:
		return 0
	}
}

// route resolves a global variant index by linear descent through the sum
// tree: the left subtree owns the low indices, the right subtree the rest,
// shifted down by the left's variant count. O(depth), no table.
func route(s Shape, tag uint64) (*variantInfo, bool) {
	for {
		sum, ok := s.(*sumShape)
		if !ok {
			if tag != 0 {
				return nil, false
			}
			return variantRoot(s), true
		}
		if tag < uint64(sum.leftCount) {
			s = sum.left
		} else {
			tag -= uint64(sum.leftCount)
			s = sum.right
		}
	}
}

func variantRoot(s Shape) *variantInfo {
	switch s := s.(type) {
	case *unitShape:
		return s.variant
	case *leafShape:
		return s.variant
	case *productShape:
		return s.variant
	default:
		return nil
	}
}

// productOf builds the right-nested field subtree of one variant from its
// leaf codecs: unit for no fields, a bare leaf for one.
func productOf(elems []elemCodec) Shape {
	switch len(elems) {
	case 0:
		return &unitShape{}
	case 1:
		return &leafShape{elem: elems[0]}
	default:
		return &productShape{
			left:  &leafShape{elem: elems[0]},
			right: productOf(elems[1:]),
		}
	}
}

// sumOf builds the right-nested sum tree over the given variant subtrees.
func sumOf(shapes []Shape) Shape {
	if len(shapes) == 1 {
		return shapes[0]
	}
	right := sumOf(shapes[1:])
	return &sumShape{
		left:      shapes[0],
		right:     right,
		leftCount: shapes[0].Variants(),
		total:     shapes[0].Variants() + right.Variants(),
	}
}
