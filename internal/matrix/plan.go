package matrix

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// DeletePolicy decides what happens to variants that leave the matrix while
// orders or carts still reference them.
type DeletePolicy string

const (
	// DeleteRestrict aborts the whole operation with an *IntegrityRiskError.
	DeleteRestrict DeletePolicy = "restrict"
	// DeleteArchive keeps referenced rows, deactivated and unlinked.
	DeleteArchive DeletePolicy = "archive"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DeleteRestrict, DeleteArchive:
		return p, nil
	case "":
		return DeleteRestrict, nil
	default:
		return "", Invalid("delete_policy", "unknown policy %q", s)
	}
}

// NewVariant is a combination that has no persisted variant yet.
type NewVariant struct {
	Signature Signature
	// AttributeIDs are in axis order.
	AttributeIDs []int64
	Name         string
}

// RetainedVariant is a persisted variant whose signature is still desired.
// Its id, price, stock, image and attribute links survive untouched: equal
// signatures mean equal link sets, since links are unique per
// (variant, attribute).
type RetainedVariant struct {
	Variant      model.ProductVariant
	Signature    Signature
	AttributeIDs []int64
	Name         string
	// Renamed is set when an attribute value changed since the last sync.
	Renamed bool
}

// Plan is the full set of changes that brings persisted variants in line
// with the desired matrix. Applying an empty plan is a no-op.
type Plan struct {
	ProductID    string
	Combinations int
	Create       []NewVariant
	Retain       []RetainedVariant
	Delete       []model.ProductVariant
	Archive      []model.ProductVariant
}

// HasVariants reports whether the product ends up with at least one variant.
func (p *Plan) HasVariants() bool { return p.Combinations > 0 }

// Changed reports whether applying the plan would write anything.
func (p *Plan) Changed() bool {
	if len(p.Create) > 0 || len(p.Delete) > 0 || len(p.Archive) > 0 {
		return true
	}
	return slices.ContainsFunc(p.Retain, func(r RetainedVariant) bool {
		return r.Renamed
	})
}

// RemovalIDs returns the ids of every variant leaving the matrix.
func (p *Plan) RemovalIDs() []string {
	ids := make([]string, 0, len(p.Delete)+len(p.Archive))
	for _, v := range p.Delete {
		ids = append(ids, v.ID)
	}
	for _, v := range p.Archive {
		ids = append(ids, v.ID)
	}
	return ids
}

// ApplyDeletePolicy splits the removals of p according to policy, given the
// ids of removed variants that are still referenced elsewhere.
func (p *Plan) ApplyDeletePolicy(policy DeletePolicy, referenced []string) error {
	if len(referenced) == 0 {
		return nil
	}
	refs := make(map[string]struct{}, len(referenced))
	for _, id := range referenced {
		refs[id] = struct{}{}
	}

	switch policy {
	case DeleteRestrict, "":
		var ids []string
		for _, v := range p.Delete {
			if _, ok := refs[v.ID]; ok {
				ids = append(ids, v.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		slices.Sort(ids)
		return &IntegrityRiskError{VariantIDs: ids}
	case DeleteArchive:
		keep := p.Delete[:0:0]
		for _, v := range p.Delete {
			if _, ok := refs[v.ID]; ok {
				p.Archive = append(p.Archive, v)
				continue
			}
			keep = append(keep, v)
		}
		p.Delete = keep
		return nil
	default:
		return fmt.Errorf("unknown delete policy %q: %w", policy, ErrValidation)
	}
}

// Summary is a compact description of the plan, for logs and previews.
func (p *Plan) Summary() string {
	renamed := 0
	for _, r := range p.Retain {
		if r.Renamed {
			renamed++
		}
	}
	return fmt.Sprintf("product=%s combinations=%d create=%d retain=%d renamed=%d delete=%d archive=%d",
		p.ProductID, p.Combinations, len(p.Create), len(p.Retain), renamed, len(p.Delete), len(p.Archive))
}
