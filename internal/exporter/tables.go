package exporter

import (
	"namefinder/pkg/contracts/domain"
)

// Column layouts of the reference artifacts
var (
	GenderReferenceHeaders = []string{"name", "prediction", "f_pct", "m_pct"}
	AgeReferenceHeaders    = []string{"name", "sex", "year", "number_living_pct"}
	LivingTotalHeaders     = []string{"name", "sex", "number_living"}
)

// GenderReferenceRecords converts gender reference rows to CSV records
func GenderReferenceRecords(rows []domain.GenderReferenceRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.Name, string(r.Prediction), formatInt(r.FPct), formatInt(r.MPct)}
	}
	return records
}

// AgeReferenceRecords converts age reference rows to CSV records
func AgeReferenceRecords(rows []domain.AgeReferenceRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.Name, string(r.Sex), formatInt(r.Year), formatFloat(r.NumberLivingPct)}
	}
	return records
}

// LivingTotalRecords converts lifetime living totals to CSV records
func LivingTotalRecords(rows []domain.LivingTotal) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.Name, string(r.Sex), formatFloat(r.NumberLiving)}
	}
	return records
}
