package services

import (
	"strings"

	"namefinder/internal/reference"
	"namefinder/pkg/contracts/domain"
)

// Result is the envelope of every query answer: the effective parameters
// echoed back, the data and any per-item problems of a batch
type Result[P, D any] struct {
	Params P        `json:"params"`
	Data   D        `json:"data"`
	Errors []string `json:"errors,omitempty"`
}

// YearRange selects birth years; zero fields are unset
type YearRange struct {
	After  int `json:"after,omitempty" validate:"omitempty,gte=1000,lte=9999"`
	Before int `json:"before,omitempty" validate:"omitempty,gte=1000,lte=9999,gtefield=After"`
	Year   int `json:"year,omitempty" validate:"omitempty,gte=1000,lte=9999"`
}

// ProfileRequest asks for the popularity profile of one name
type ProfileRequest struct {
	Name string `json:"name" validate:"required"`
	YearRange
}

// SearchRequest holds the predicates of a name search
type SearchRequest struct {
	YearRange

	Pattern     string   `json:"pattern,omitempty"`
	Start       []string `json:"start,omitempty"`
	End         []string `json:"end,omitempty"`
	Contains    []string `json:"contains,omitempty"`
	ContainsAny []string `json:"contains_any,omitempty"`
	Order       []string `json:"order,omitempty"`
	NotStart    []string `json:"not_start,omitempty"`
	NotEnd      []string `json:"not_end,omitempty"`
	NotContains []string `json:"not_contains,omitempty"`

	LengthMin int `json:"length_min,omitempty" validate:"omitempty,gte=1"`
	LengthMax int `json:"length_max,omitempty" validate:"omitempty,gte=1,gtefield=LengthMin"`
	NumberMin int `json:"number_min,omitempty" validate:"omitempty,gte=1"`
	NumberMax int `json:"number_max,omitempty" validate:"omitempty,gte=1,gtefield=NumberMin"`

	// GenderMin and GenderMax bound the male share of the name
	GenderMin *float64 `json:"gender_min,omitempty" validate:"omitempty,gte=0,lte=1"`
	GenderMax *float64 `json:"gender_max,omitempty" validate:"omitempty,gte=0,lte=1"`

	// Names must have peaked within these bounds when any is set
	PeakAfter   int `json:"peak_after,omitempty" validate:"omitempty,gte=1000,lte=9999"`
	PeakBefore  int `json:"peak_before,omitempty" validate:"omitempty,gte=1000,lte=9999,gtefield=PeakAfter"`
	PeakRankMax int `json:"peak_rank_max,omitempty" validate:"omitempty,gte=1"`

	Top     int    `json:"top,omitempty"`
	SortSex string `json:"sort_sex,omitempty" validate:"omitempty,oneof=f m"`
}

// SearchResult is a search row with its display string
type SearchResult struct {
	Name    string  `json:"name"`
	Number  int     `json:"number"`
	NumberF int     `json:"number_f"`
	NumberM int     `json:"number_m"`
	RatioF  float64 `json:"ratio_f"`
	RatioM  float64 `json:"ratio_m"`
	Rank    int     `json:"rank,omitempty"`
	RankF   int     `json:"rank_f,omitempty"`
	RankM   int     `json:"rank_m,omitempty"`
	Display string  `json:"display"`
}

// PeaksRequest lists the years in which names reached their best rank, or
// the raw count rows when Raw is set. Unlike a search, every year field
// applies. Sex defaults to combined for peaks.
type PeaksRequest struct {
	YearRange
	Sex     string `json:"sex,omitempty" validate:"omitempty,oneof=f m combined"`
	RankMin int    `json:"rank_min,omitempty" validate:"omitempty,gte=1"`
	RankMax int    `json:"rank_max,omitempty" validate:"omitempty,gte=1,gtefield=RankMin"`
	Raw     bool   `json:"raw,omitempty"`
	Top     int    `json:"top,omitempty"`
}

// PeakRow is one peak or raw count row
type PeakRow struct {
	Name   string     `json:"name"`
	Sex    domain.Sex `json:"sex"`
	Year   int        `json:"year"`
	Number int        `json:"number"`
	Rank   int        `json:"rank"`
}

// GenderRequest asks for the sex prediction of one name. Living defaults
// to true.
type GenderRequest struct {
	Name string `json:"name" validate:"required"`
	YearRange
	Living *bool `json:"living,omitempty"`
}

// AgeRequest asks for the birth-year band of one (name, sex)
type AgeRequest struct {
	Name          string  `json:"name" validate:"required"`
	Sex           string  `json:"sex" validate:"required,oneof=f m"`
	MidPercentile float64 `json:"mid_percentile,omitempty" validate:"omitempty,gt=0,lt=1"`
}

// GenderBatchRequest classifies many names at once. A nil After uses the
// data quality cutoff and an explicit 0 removes the lower bound.
type GenderBatchRequest struct {
	After     *int                   `json:"after,omitempty" validate:"omitempty,gte=0,lte=9999"`
	Before    int                    `json:"before,omitempty" validate:"omitempty,gte=1000,lte=9999"`
	RatioMin  *float64               `json:"ratio_min,omitempty" validate:"omitempty,gte=0,lte=1"`
	NumberMin *int                   `json:"number_min,omitempty" validate:"omitempty,gte=0"`
	Data      []reference.GenderItem `json:"data" validate:"nonempty"`
}

// GenderBatchParams echoes the options a batch was classified with
type GenderBatchParams struct {
	After     int     `json:"after"`
	Before    int     `json:"before,omitempty"`
	RatioMin  float64 `json:"ratio_min"`
	NumberMin int     `json:"number_min"`
}

// AgeBatchRequest estimates the birth-year band of many (name, sex) pairs
type AgeBatchRequest struct {
	MidPercentile float64             `json:"mid_percentile,omitempty" validate:"omitempty,gt=0,lt=1"`
	Data          []reference.AgeItem `json:"data" validate:"nonempty"`
}

// AgeBatchParams echoes the options of a batch age prediction
type AgeBatchParams struct {
	MidPercentile float64 `json:"mid_percentile"`
}

// normalizeSex lower-cases a sex before validation so "F" is accepted
func normalizeSex(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
