package billing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders a money amount for the payment sheet, localized to the
// given BCP 47 locale tag. Unknown locales fall back to English, unknown
// currency codes to the bare decimal string.
func FormatAmount(amount decimal.Decimal, currencyCode, locale string) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return amount.StringFixed(2)
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	value, _ := amount.Float64()
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.NarrowSymbol(unit.Amount(value)))
}
