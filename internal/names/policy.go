package names

import (
	"slices"

	"namefinder/pkg/contracts/domain"
)

// Policy holds the tie-break rules of the query engine. Nil fields use the
// defaults.
type Policy struct {
	// GenderTieBreak picks the predicted sex from the female and male sums.
	// The default picks female only when it is strictly larger.
	GenderTieBreak func(f, m float64) domain.Sex

	// ClosestYear picks one year among years equally close to a target
	// percentile. candidates is never empty. The default picks the smallest.
	ClosestYear func(candidates []int) int
}

// DefaultPolicy returns the default tie-break rules
func DefaultPolicy() Policy {
	return Policy{
		GenderTieBreak: MaleOnTie,
		ClosestYear:    SmallestYear,
	}
}

// MaleOnTie predicts female only when f > m
func MaleOnTie(f, m float64) domain.Sex {
	if f > m {
		return domain.SexFemale
	}
	return domain.SexMale
}

// SmallestYear returns the earliest candidate
func SmallestYear(candidates []int) int {
	return slices.Min(candidates)
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.GenderTieBreak == nil {
		p.GenderTieBreak = def.GenderTieBreak
	}
	if p.ClosestYear == nil {
		p.ClosestYear = def.ClosestYear
	}
	return p
}
