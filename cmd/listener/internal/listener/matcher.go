package listener

import (
	"strings"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// Matches reports whether a price update applies to a security. Currency is
// a pre-filter: an instrument listed in two currencies must not be
// conflated. Identity then goes ISIN first (the stronger identifier),
// symbol second. All comparisons are case-insensitive. Retired securities
// are the caller's job to filter out.
func Matches(ev models.PriceUpdate, sec *models.Security) bool {
	if ev.Currency != "" {
		secCurrency := sec.Currency
		if secCurrency == "" {
			// No trading currency recorded; fall back to the target currency.
			secCurrency = sec.TargetCurrency
		}
		if secCurrency == "" || !strings.EqualFold(secCurrency, ev.Currency) {
			return false
		}
	}

	if ev.ISIN != "" && sec.ISIN != "" && strings.EqualFold(ev.ISIN, sec.ISIN) {
		return true
	}
	if ev.Symbol != "" && sec.Symbol != "" && strings.EqualFold(ev.Symbol, sec.Symbol) {
		return true
	}
	return false
}
