package spending

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders v with two decimals and the digit grouping of tag,
// e.g. 1,100.00 for English.
func FormatAmount(v float64, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%.2f", v)
}

// FormatPercentage renders a percentage with one decimal for tag.
func FormatPercentage(v float64, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%.1f%%", v)
}
