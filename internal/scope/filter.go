// Package scope turns an authenticated actor into the filter that gates every
// case read and write. Resolution fails closed: any doubt yields a filter that
// matches nothing.
package scope

import "slices"

type Kind string

const (
	KindNone     Kind = "none"
	KindAll      Kind = "all"
	KindDistrict Kind = "district"
	KindProvince Kind = "province"
	KindOwner    Kind = "owner"
)

// Filter is a predicate over case location and ownership attributes.
//
//	KindDistrict: currentWorkPlaceCode == Codes[0]
//	KindProvince: sourceDistrictCode ∈ Codes OR currentWorkPlaceCode ∈ Codes
//	KindOwner:    nationalId == NationalID
type Filter struct {
	Kind       Kind
	Codes      []string
	NationalID string
	// Reason records why a KindNone filter was produced, for logs.
	Reason string
}

// Subject is the part of a case the filter looks at.
type Subject struct {
	CurrentWorkPlaceCode string
	SourceDistrictCode   string
	NationalID           string
}

func None(reason string) Filter {
	return Filter{Kind: KindNone, Reason: reason}
}

func All() Filter {
	return Filter{Kind: KindAll}
}

func (f Filter) MatchesNothing() bool {
	return f.Kind == KindNone
}

// Matches evaluates the filter in memory. Unknown kinds match nothing.
func (f Filter) Matches(s Subject) bool {
	switch f.Kind {
	case KindAll:
		return true
	case KindDistrict:
		return len(f.Codes) == 1 && s.CurrentWorkPlaceCode == f.Codes[0]
	case KindProvince:
		return slices.Contains(f.Codes, s.SourceDistrictCode) || slices.Contains(f.Codes, s.CurrentWorkPlaceCode)
	case KindOwner:
		return f.NationalID != "" && s.NationalID == f.NationalID
	default:
		return false
	}
}
