package names

import "namefinder/pkg/contracts/domain"

// GenderOptions selects the name, years and counts of a sex prediction
type GenderOptions struct {
	Name string
	Years
	// Living weighs births by the share of their cohort still alive
	Living bool
}

// PredictGender predicts the sex of a name's holders from the births of the
// selected years. When no births match only the echo fields are set.
func (e *Engine) PredictGender(opts GenderOptions) domain.GenderPrediction {
	name := Standardize(opts.Name)
	out := domain.GenderPrediction{Name: name, Living: opts.Living}
	if opts.Year != 0 {
		out.Year = opts.Year
	} else {
		out.After, out.Before = opts.After, opts.Before
	}

	var f, m float64
	add := func(sex domain.Sex, n float64) {
		switch sex {
		case domain.SexFemale:
			f += n
		case domain.SexMale:
			m += n
		}
	}
	if opts.Living {
		for _, r := range e.ds.Living(name) {
			if opts.Contains(r.Year) {
				add(r.Sex, r.NumberLiving)
			}
		}
	} else {
		for _, r := range e.ds.Counts(name) {
			if opts.Contains(r.Year) {
				add(r.Sex, float64(r.Number))
			}
		}
	}

	total := f + m
	out.Number = int(total)
	if total <= 0 {
		return out
	}

	out.Prediction = e.policy.GenderTieBreak(f, m)
	majority := m
	if out.Prediction == domain.SexFemale {
		majority = f
	}
	confidence := round(majority/total, 2)
	out.Confidence = &confidence
	return out
}
