package domain

// SexCounts holds a value split by sex plus the total
type SexCounts struct {
	Total int `json:"total"`
	F     int `json:"f"`
	M     int `json:"m"`
}

// SexRatios holds the female and male shares of a total
type SexRatios struct {
	F float64 `json:"f"`
	M float64 `json:"m"`
}

// SexRanks holds the ranks of a name in a single year
type SexRanks struct {
	Total int `json:"total"`
	F     int `json:"f"`
	M     int `json:"m"`
}

// YearSnapshot describes a name in one specific year
type YearSnapshot struct {
	Year   int       `json:"year"`
	Number SexCounts `json:"number"`
	Rank   SexRanks  `json:"rank"`
}

// NameProfile is the popularity profile of a single name
type NameProfile struct {
	Name         string        `json:"name"`
	After        int           `json:"after,omitempty"`
	Before       int           `json:"before,omitempty"`
	Year         int           `json:"year,omitempty"`
	Numbers      SexCounts     `json:"numbers"`
	Ratios       SexRatios     `json:"ratios"`
	Peaks        []PeakRecord  `json:"peak"`
	Latest       YearSnapshot  `json:"latest"`
	Earliest     YearSnapshot  `json:"earliest"`
	SelectedYear *YearSnapshot `json:"selected_year,omitempty"`
}

// SearchRow is one aggregated name returned by a search.
// Ranks are only populated when the search targets a single year.
type SearchRow struct {
	Name    string  `json:"name"`
	Number  int     `json:"number"`
	NumberF int     `json:"number_f"`
	NumberM int     `json:"number_m"`
	RatioF  float64 `json:"ratio_f"`
	RatioM  float64 `json:"ratio_m"`
	Rank    int     `json:"rank,omitempty"`
	RankF   int     `json:"rank_f,omitempty"`
	RankM   int     `json:"rank_m,omitempty"`
}

// GenderPrediction is the result of a single-name sex prediction.
// Prediction and Confidence are absent when no births matched.
type GenderPrediction struct {
	Name       string   `json:"name"`
	Living     bool     `json:"living,omitempty"`
	After      int      `json:"after,omitempty"`
	Before     int      `json:"before,omitempty"`
	Year       int      `json:"year,omitempty"`
	Number     int      `json:"number"`
	Prediction Sex      `json:"prediction,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// PercentileBound is one end of an age prediction band
type PercentileBound struct {
	Percentile float64 `json:"percentile"`
	Year       int     `json:"year"`
}

// AgePrediction is the estimated birth-year band of a (name, sex)
type AgePrediction struct {
	Name           string          `json:"name"`
	Sex            Sex             `json:"sex"`
	MidPercentile  float64         `json:"mid_percentile"`
	Lower          PercentileBound `json:"lower"`
	Upper          PercentileBound `json:"upper"`
	PercentileBand float64         `json:"percentile_band"`
	YearBand       int             `json:"year_band"`
}

// GenderBatchResult is one item of a batch gender prediction
type GenderBatchResult struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	MatchedName string      `json:"matched_name"`
	Prediction  GenderClass `json:"gender_prediction"`
	FPct        *int        `json:"f_pct,omitempty"`
	MPct        *int        `json:"m_pct,omitempty"`
}

// AgeBatchResult is one item of a batch age prediction.
// The year bounds are nil when the (name, sex) has no reference data.
type AgeBatchResult struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Sex         string `json:"sex"`
	MatchedName string `json:"matched_name"`
	MatchedSex  Sex    `json:"matched_sex"`
	YearLower   *int   `json:"year_lower"`
	YearUpper   *int   `json:"year_upper"`
}
