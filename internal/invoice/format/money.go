package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const fallbackScale = 2

// Scale returns the number of minor-unit digits for an ISO 4217 code.
// Unknown codes are treated as two-digit currencies.
func Scale(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return fallbackScale
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Money renders an amount in minor units as "<CODE> <localized number>",
// e.g. Money(12100, "USD", "en") == "USD 121.00".
func Money(amount int64, code, locale string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}
	scale := Scale(code)
	value := decimal.New(amount, -int32(scale)).InexactFloat64()

	p := message.NewPrinter(Tag(locale))
	return code + " " + p.Sprintf(fmt.Sprintf("%%.%df", scale), value)
}

// Percent renders a fractional rate (0.21) as a localized percentage ("21%").
func Percent(rate float64, locale string) string {
	p := message.NewPrinter(Tag(locale))
	return p.Sprintf("%v%%", decimal.NewFromFloat(rate).Shift(2).InexactFloat64())
}

// Tag parses a locale, falling back to English.
func Tag(locale string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.English
	}
	return tag
}
