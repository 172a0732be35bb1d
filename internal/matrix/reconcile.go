package matrix

import (
	"cmp"
	"slices"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// Snapshot is the state Reconcile works from, read inside the transaction
// that will apply the resulting plan.
type Snapshot struct {
	ProductID string
	// Categories is the desired matrix, after the pending edit.
	Categories []model.VariantCategory
	// Retired holds attributes removed by the pending edit. Persisted links
	// may still point at them; they are deleted once the plan is applied.
	Retired []model.VariantAttribute
	// Variants are the active persisted variants with AttributeIDs loaded.
	Variants []model.ProductVariant
}

type Options struct {
	MaxCombinations int
	NameSeparator   string
}

func (o Options) withDefaults() Options {
	if o.MaxCombinations <= 0 {
		o.MaxCombinations = DefaultMaxCombinations
	}
	if o.NameSeparator == "" {
		o.NameSeparator = DefaultNameSeparator
	}
	return o
}

// Reconcile diffs the desired combinations of s against its persisted
// variants. Matching is by Signature only. When several persisted variants
// share a signature, the oldest is retained and the rest are removed.
func Reconcile(s Snapshot, opts Options) (*Plan, error) {
	opts = opts.withDefaults()

	owned, err := validateCategories(s.ProductID, s.Categories)
	if err != nil {
		return nil, err
	}
	retired := make(map[int64]struct{}, len(s.Retired))
	for _, a := range s.Retired {
		retired[a.ID] = struct{}{}
	}

	gen, err := NewGenerator(AxesFrom(s.Categories), opts.MaxCombinations)
	if err != nil {
		return nil, err
	}

	desired := make(map[Key]int, gen.Size())
	combos := make([]Combination, 0, gen.Size())
	for combo := range gen.All() {
		key := combo.Signature().Key()
		if _, dup := desired[key]; dup {
			return nil, corrupt("combination %s generated twice", combo.Signature())
		}
		desired[key] = len(combos)
		combos = append(combos, combo)
	}

	existing := slices.Clone(s.Variants)
	slices.SortStableFunc(existing, func(a, b model.ProductVariant) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	plan := &Plan{ProductID: s.ProductID, Combinations: len(combos)}
	matched := make([]bool, len(combos))
	for _, v := range existing {
		if v.ProductID != s.ProductID {
			return nil, Invalid("variant", "variant %s belongs to product %s", v.ID, v.ProductID)
		}
		for _, id := range v.AttributeIDs {
			_, own := owned[id]
			_, old := retired[id]
			if !own && !old {
				return nil, Invalid("variant", "variant %s links attribute %d outside product %s", v.ID, id, s.ProductID)
			}
		}

		sig := NewSignature(v.AttributeIDs)
		i, ok := desired[sig.Key()]
		if !ok || matched[i] {
			plan.Delete = append(plan.Delete, v)
			continue
		}
		matched[i] = true

		combo := combos[i]
		name := combo.Name(opts.NameSeparator)
		plan.Retain = append(plan.Retain, RetainedVariant{
			Variant:      v,
			Signature:    sig,
			AttributeIDs: combo.AttributeIDs(),
			Name:         name,
			Renamed:      name != v.VariantName,
		})
	}

	for i, combo := range combos {
		if matched[i] {
			continue
		}
		plan.Create = append(plan.Create, NewVariant{
			Signature:    combo.Signature(),
			AttributeIDs: combo.AttributeIDs(),
			Name:         combo.Name(opts.NameSeparator),
		})
	}
	return plan, nil
}

// validateCategories returns the set of attribute ids owned by productID.
func validateCategories(productID string, categories []model.VariantCategory) (map[int64]struct{}, error) {
	if productID == "" {
		return nil, Invalid("product_id", "must not be empty")
	}
	seenCat := make(map[int64]struct{}, len(categories))
	owned := make(map[int64]struct{})
	for _, c := range categories {
		if c.ProductID != "" && c.ProductID != productID {
			return nil, Invalid("category", "category %d belongs to product %s", c.ID, c.ProductID)
		}
		if _, dup := seenCat[c.ID]; dup {
			return nil, corrupt("category %d listed twice", c.ID)
		}
		seenCat[c.ID] = struct{}{}

		for _, a := range c.Attributes {
			if a.CategoryID != 0 && a.CategoryID != c.ID {
				return nil, Invalid("attribute", "attribute %d belongs to category %d, not %d", a.ID, a.CategoryID, c.ID)
			}
			if _, dup := owned[a.ID]; dup {
				return nil, corrupt("attribute %d appears on more than one axis", a.ID)
			}
			owned[a.ID] = struct{}{}
		}
	}
	return owned, nil
}
