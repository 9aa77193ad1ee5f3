package analyzer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// priceSanitizer converts the decimal-comma, "R$"-prefixed price strings of
// the itens de vendas table into plain decimal-point numerics.
var priceSanitizer = strings.NewReplacer(",", ".", "R$", "")

// NormalizePrice coerces a raw unit price such as "R$ 25,50" into a decimal.
// The second return is false when the value does not parse; an unparseable
// price is a per-row condition, never a run failure.
func NormalizePrice(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(priceSanitizer.Replace(raw))
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
