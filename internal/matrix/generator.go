package matrix

import (
	"cmp"
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// DefaultMaxCombinations caps the catalog size of a single product.
const DefaultMaxCombinations = 2000

// DefaultNameSeparator joins attribute values into a variant display name.
const DefaultNameSeparator = " - "

// Axis is one variant category and its attribute values, in display order.
type Axis struct {
	CategoryID int64
	Name       string
	Attributes []model.VariantAttribute
}

// Combination picks exactly one attribute from every axis, in axis order.
type Combination []model.VariantAttribute

func (c Combination) AttributeIDs() []int64 {
	ids := make([]int64, len(c))
	for i, a := range c {
		ids[i] = a.ID
	}
	return ids
}

func (c Combination) Signature() Signature {
	return NewSignature(c.AttributeIDs())
}

// Name joins the attribute values with sep.
func (c Combination) Name(sep string) string {
	values := make([]string, len(c))
	for i, a := range c {
		values[i] = a.Value
	}
	return strings.Join(values, sep)
}

// AxesFrom converts categories into axes, ordering categories and their
// attributes by sort order and then id.
func AxesFrom(categories []model.VariantCategory) []Axis {
	cats := slices.Clone(categories)
	SortCategories(cats)
	axes := make([]Axis, len(cats))
	for i, c := range cats {
		axes[i] = Axis{CategoryID: c.ID, Name: c.Name, Attributes: c.Attributes}
	}
	return axes
}

// SortCategories orders categories, and the attributes within each, by
// sort order and then id. The attribute slices are re-sorted in place.
func SortCategories(categories []model.VariantCategory) {
	slices.SortStableFunc(categories, func(a, b model.VariantCategory) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.ID, b.ID))
	})
	for i := range categories {
		attrs := slices.Clone(categories[i].Attributes)
		SortAttributes(attrs)
		categories[i].Attributes = attrs
	}
}

func SortAttributes(attrs []model.VariantAttribute) {
	slices.SortStableFunc(attrs, func(a, b model.VariantAttribute) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.ID, b.ID))
	})
}

// CountCombinations returns the size of the Cartesian product of axes
// without producing it. An empty axis list, or any axis without attributes,
// yields zero. A product above limit returns a *CapacityError; Requested
// saturates at math.MaxInt.
func CountCombinations(axes []Axis, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultMaxCombinations
	}
	if len(axes) == 0 {
		return 0, nil
	}
	for _, a := range axes {
		if len(a.Attributes) == 0 {
			return 0, nil
		}
	}

	size := 1
	for _, a := range axes {
		n := len(a.Attributes)
		if size > math.MaxInt/n {
			return 0, &CapacityError{Requested: math.MaxInt, Limit: limit}
		}
		size *= n
	}
	if size > limit {
		return 0, &CapacityError{Requested: size, Limit: limit}
	}
	return size, nil
}

// Generator lazily enumerates the Cartesian product of its axes.
type Generator struct {
	axes []Axis
	size int
}

// NewGenerator checks the capacity limit before any combination is produced.
func NewGenerator(axes []Axis, limit int) (*Generator, error) {
	size, err := CountCombinations(axes, limit)
	if err != nil {
		return nil, err
	}
	return &Generator{axes: axes, size: size}, nil
}

func (g *Generator) Size() int { return g.size }

// All yields every combination exactly once. The last axis varies fastest,
// so for Size{S,M} x Color{Red,Blue} the order is S-Red, S-Blue, M-Red, M-Blue.
func (g *Generator) All() iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		if g.size == 0 {
			return
		}
		idx := make([]int, len(g.axes))
		for {
			combo := make(Combination, len(g.axes))
			for i, a := range g.axes {
				combo[i] = a.Attributes[idx[i]]
			}
			if !yield(combo) {
				return
			}

			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(g.axes[i].Attributes) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}
