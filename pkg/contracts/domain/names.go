package domain

import (
	"fmt"
	"strings"
)

// Sex represents the sex column of the birth-count data
type Sex string

const (
	SexFemale   Sex = "f"
	SexMale     Sex = "m"
	SexCombined Sex = "combined" // synthetic sex for sexes-combined rows
)

// BothSexes lists the sexes present in the raw data, in output order
var BothSexes = []Sex{SexFemale, SexMale}

// ParseSex normalizes a raw sex value ("F", "m", ...) into a Sex.
// Only the two raw sexes are accepted.
func ParseSex(raw string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "f":
		return SexFemale, nil
	case "m":
		return SexMale, nil
	default:
		return "", fmt.Errorf("invalid sex %q: must be f or m", raw)
	}
}

// Valid reports whether s is one of the raw sexes
func (s Sex) Valid() bool {
	return s == SexFemale || s == SexMale
}

// NoRank marks a sex that did not rank in a given year.
// It is distinct from any real competition rank, which starts at 1.
const NoRank = -1

// CountRecord is one (name, sex, year) row of the raw birth-count files
type CountRecord struct {
	Name   string `json:"name" csv:"name"`
	Sex    Sex    `json:"sex" csv:"sex"`
	Year   int    `json:"year" csv:"year"`
	Number int    `json:"number" csv:"number"`
	Rank   int    `json:"rank" csv:"rank"`
}

// ApplicantTotal holds the total number of births for one year
type ApplicantTotal struct {
	Year    int `json:"year" csv:"year"`
	Number  int `json:"number" csv:"number"`
	NumberF int `json:"number_f" csv:"number_f"`
	NumberM int `json:"number_m" csv:"number_m"`
}

// ActuarialRecord is the probability that someone of the given sex born in
// BirthYear is still alive at the actuarial table year.
type ActuarialRecord struct {
	Sex          Sex     `json:"sex"`
	BirthYear    int     `json:"birth_year"`
	SurvivalProb float64 `json:"survival_prob"`
}

// NameByYear is a name's count for one year with the sexes combined
type NameByYear struct {
	Name   string `json:"name"`
	Year   int    `json:"year"`
	Number int    `json:"number"`
	Rank   int    `json:"rank"`
}

// CalculatedRow is the per-(name, year) view joining both sexes, the
// combined ranking and the applicant totals of that year.
type CalculatedRow struct {
	Name       string  `json:"name"`
	Year       int     `json:"year"`
	Number     int     `json:"number"`
	NumberF    int     `json:"number_f"`
	NumberM    int     `json:"number_m"`
	Rank       int     `json:"rank"`
	RankF      int     `json:"rank_f"`
	RankM      int     `json:"rank_m"`
	NumberPct  float64 `json:"number_pct"`
	NumberPctF float64 `json:"number_pct_f"`
	NumberPctM float64 `json:"number_pct_m"`
}

// PeakRecord is a year in which a (name, sex) reached its best rank.
// A name that tied its best rank in several years has one record per year.
type PeakRecord struct {
	Name   string `json:"name"`
	Sex    Sex    `json:"sex"`
	Year   int    `json:"year"`
	Rank   int    `json:"rank"`
	Number int    `json:"number"`
}

// LivingRecord is a CountRecord weighted by the survival probability of its
// birth cohort.
type LivingRecord struct {
	Name         string  `json:"name"`
	Sex          Sex     `json:"sex"`
	Year         int     `json:"year"`
	Number       int     `json:"number"`
	NumberLiving float64 `json:"number_living"`
}

// AgeReferenceRow is the share of a (name, sex)'s living holders born in Year
type AgeReferenceRow struct {
	Name            string  `json:"name" csv:"name"`
	Sex             Sex     `json:"sex" csv:"sex"`
	Year            int     `json:"year" csv:"year"`
	NumberLivingPct float64 `json:"number_living_pct" csv:"number_living_pct"`
}

// LivingTotal is the lifetime living count of a (name, sex)
type LivingTotal struct {
	Name         string  `json:"name" csv:"name"`
	Sex          Sex     `json:"sex" csv:"sex"`
	NumberLiving float64 `json:"number_living" csv:"number_living"`
}

// GenderClass is the precomputed gender classification of a name
type GenderClass string

const (
	GenderFemale  GenderClass = "f"
	GenderMale    GenderClass = "m"
	GenderNeutral GenderClass = "x"
	GenderRare    GenderClass = "rare"
	GenderUnknown GenderClass = "unk"
)

// GenderReferenceRow is one row of the gender classification lookup
type GenderReferenceRow struct {
	Name       string      `json:"name" csv:"name"`
	Prediction GenderClass `json:"prediction" csv:"prediction"`
	FPct       int         `json:"f_pct" csv:"f_pct"`
	MPct       int         `json:"m_pct" csv:"m_pct"`
}
