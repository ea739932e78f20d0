package names

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	apperrors "namefinder/internal/errors"
	"namefinder/pkg/contracts/domain"
)

// RatioBounds is an inclusive range of the male share of a name
type RatioBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchOptions are the predicates of a search. Every set predicate must
// hold; zero values are unset. Text predicates compare case-insensitively.
type SearchOptions struct {
	Years

	Pattern     string   // regular expression matched anywhere in the name
	Start       []string // name starts with any of these
	End         []string // name ends with any of these
	Contains    []string // name contains all of these
	ContainsAny []string // name contains at least one of these
	Order       []string // these appear in the name in this order
	NotStart    []string
	NotEnd      []string
	NotContains []string

	LengthMin int
	LengthMax int
	NumberMin int
	NumberMax int
	Gender    *RatioBounds

	// Peaked, when non-nil, keeps only the names in the set
	Peaked map[string]bool

	// Top limits the result; 0 uses the configured default and a negative
	// value returns every row
	Top int

	// SortSex sorts by the female or male count instead of the total
	SortSex domain.Sex
}

// matcher is one text predicate over a lower-cased name
type matcher func(lower string) bool

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

func anyOf(tokens []string, test func(s, token string) bool) matcher {
	tokens = lowerAll(tokens)
	return func(lower string) bool {
		return slices.ContainsFunc(tokens, func(t string) bool { return test(lower, t) })
	}
}

func allOf(tokens []string, test func(s, token string) bool) matcher {
	tokens = lowerAll(tokens)
	return func(lower string) bool {
		for _, t := range tokens {
			if !test(lower, t) {
				return false
			}
		}
		return true
	}
}

func not(m matcher) matcher {
	return func(lower string) bool { return !m(lower) }
}

// inOrder matches when every token occurs after the end of the previous one
func inOrder(tokens []string) matcher {
	tokens = lowerAll(tokens)
	return func(lower string) bool {
		rest := lower
		for _, t := range tokens {
			i := strings.Index(rest, t)
			if i < 0 {
				return false
			}
			rest = rest[i+len(t):]
		}
		return true
	}
}

// matchers compiles the text predicates of opts
func (opts SearchOptions) matchers() ([]matcher, error) {
	var ms []matcher
	var verrs apperrors.ValidationErrors

	if opts.Pattern != "" {
		re, err := regexp.Compile("(?i)" + opts.Pattern)
		if err != nil {
			verrs.Add("pattern", "is not a valid regular expression: "+err.Error())
		} else {
			ms = append(ms, re.MatchString)
		}
	}
	if len(opts.Start) > 0 {
		ms = append(ms, anyOf(opts.Start, strings.HasPrefix))
	}
	if len(opts.End) > 0 {
		ms = append(ms, anyOf(opts.End, strings.HasSuffix))
	}
	if len(opts.Contains) > 0 {
		ms = append(ms, allOf(opts.Contains, strings.Contains))
	}
	if len(opts.ContainsAny) > 0 {
		ms = append(ms, anyOf(opts.ContainsAny, strings.Contains))
	}
	if len(opts.Order) > 0 {
		ms = append(ms, inOrder(opts.Order))
	}
	if len(opts.NotStart) > 0 {
		ms = append(ms, not(anyOf(opts.NotStart, strings.HasPrefix)))
	}
	if len(opts.NotEnd) > 0 {
		ms = append(ms, not(anyOf(opts.NotEnd, strings.HasSuffix)))
	}
	if len(opts.NotContains) > 0 {
		ms = append(ms, not(anyOf(opts.NotContains, strings.Contains)))
	}

	switch opts.SortSex {
	case "", domain.SexFemale, domain.SexMale:
	default:
		verrs.Add("sort_sex", "must be `f` or `m`")
	}
	if opts.Gender != nil && opts.Gender.Min > opts.Gender.Max {
		verrs.Add("gender", "min must not exceed max")
	}

	return ms, verrs.Err()
}

// Search aggregates every name over the selected years and returns the
// names passing all predicates, largest first. Ranks are only reported when
// a single year is selected. The only error is a validation error for
// invalid options.
func (e *Engine) Search(opts SearchOptions) ([]domain.SearchRow, error) {
	ms, err := opts.matchers()
	if err != nil {
		return nil, err
	}

	var rows []domain.SearchRow
	for name, history := range e.ds.CalculatedByName() {
		if PlaceholderNames[name] {
			continue
		}
		row, ok := aggregate(name, history, opts.Years)
		if !ok || !opts.passes(row, ms) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return []domain.SearchRow{}, nil
	}

	sortKey := func(r domain.SearchRow) int { return r.Number }
	switch opts.SortSex {
	case domain.SexFemale:
		sortKey = func(r domain.SearchRow) int { return r.NumberF }
	case domain.SexMale:
		sortKey = func(r domain.SearchRow) int { return r.NumberM }
	}
	// rows arrive in name order, so equal counts stay alphabetical
	slices.SortStableFunc(rows, func(a, b domain.SearchRow) int {
		return cmp.Compare(sortKey(b), sortKey(a))
	})

	if opts.Peaked != nil {
		rows = slices.DeleteFunc(rows, func(r domain.SearchRow) bool { return !opts.Peaked[r.Name] })
	}

	top := opts.Top
	if top == 0 {
		top = e.cfg.SearchTop
	}
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}
	return rows, nil
}

// aggregate sums the history of a name over the selected years
func aggregate(name string, history []domain.CalculatedRow, years Years) (domain.SearchRow, bool) {
	row := domain.SearchRow{Name: name}
	matched := false
	for _, r := range history {
		if !years.Contains(r.Year) {
			continue
		}
		if years.Year != 0 {
			if !matched {
				row.Rank, row.RankF, row.RankM = r.Rank, r.RankF, r.RankM
			} else {
				row.Rank, row.RankF, row.RankM = min(row.Rank, r.Rank), min(row.RankF, r.RankF), min(row.RankM, r.RankM)
			}
		}
		matched = true
		row.Number += r.Number
		row.NumberF += r.NumberF
		row.NumberM += r.NumberM
	}
	row.RatioF = ratio(row.NumberF, row.Number)
	row.RatioM = ratio(row.NumberM, row.Number)
	return row, matched
}

func (opts SearchOptions) passes(row domain.SearchRow, ms []matcher) bool {
	if opts.NumberMin != 0 && row.Number < opts.NumberMin {
		return false
	}
	if opts.NumberMax != 0 && row.Number > opts.NumberMax {
		return false
	}
	length := utf8.RuneCountInString(row.Name)
	if opts.LengthMin != 0 && length < opts.LengthMin {
		return false
	}
	if opts.LengthMax != 0 && length > opts.LengthMax {
		return false
	}
	if opts.Gender != nil && (row.RatioM < opts.Gender.Min || row.RatioM > opts.Gender.Max) {
		return false
	}

	lower := strings.ToLower(row.Name)
	for _, m := range ms {
		if !m(lower) {
			return false
		}
	}
	return true
}
