package dataprocessing

import (
	"cmp"
	"slices"
)

// rankCompetition orders rows by descending count (ties by name) and assigns
// competition ranks: equal counts share the best rank of their tie group and
// the next distinct count is ranked after the whole group.
func rankCompetition[T any](rows []T, number func(*T) int, name func(*T) string, setRank func(*T, int)) {
	slices.SortFunc(rows, func(a, b T) int {
		if c := cmp.Compare(number(&b), number(&a)); c != 0 {
			return c
		}
		return cmp.Compare(name(&a), name(&b))
	})

	rank := 0
	for i := range rows {
		if i == 0 || number(&rows[i]) != number(&rows[i-1]) {
			rank = i + 1
		}
		setRank(&rows[i], rank)
	}
}
