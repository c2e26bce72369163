package reporting

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatDollarMillions renders a dollar amount as "$X.XXM" with thousands
// separators, e.g. 1234567890 -> "$1,234.57M".
func FormatDollarMillions(x float64) string {
	return printer.Sprintf("$%.2fM", x/1_000_000)
}

// FormatThousands renders x rounded to an integer with thousands separators.
func FormatThousands(x float64) string {
	return printer.Sprintf("%.0f", x)
}
