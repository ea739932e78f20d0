package exporter

import (
	"strconv"
)

// formatFloat formats a float64 with the shortest representation that reads
// back to the same value
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
