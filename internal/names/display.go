package names

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"namefinder/pkg/contracts/domain"
)

// displayRatio describes the lean of a name, e.g. "f=97%"
func displayRatio(p *message.Printer, f, m float64) string {
	switch {
	case f > m:
		return p.Sprintf("f=%d%%", int(math.Round(f*100)))
	case m > f:
		return p.Sprintf("m=%d%%", int(math.Round(m*100)))
	default:
		return "no lean"
	}
}

// DisplayString renders a search row for people, e.g. "Ann (n=1,234; f=100%)"
func DisplayString(row domain.SearchRow) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s (n=%d; %s)", row.Name, row.Number, displayRatio(p, row.RatioF, row.RatioM))
}
