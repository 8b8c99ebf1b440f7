package listener_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/listener"
	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

func update(isin, symbol, currency string) models.PriceUpdate {
	return models.PriceUpdate{
		ISIN:     isin,
		Symbol:   symbol,
		Currency: currency,
		Price:    decimal.NewFromInt(100),
		Time:     time.Now(),
	}
}

func security(isin, symbol, currency, target string) *models.Security {
	return &models.Security{
		ID:             uuid.New(),
		ISIN:           isin,
		Symbol:         symbol,
		Currency:       currency,
		TargetCurrency: target,
	}
}

func TestMatches_ISINCaseInsensitive(t *testing.T) {
	sec := security("US0378331005", "", "", "")

	if !listener.Matches(update("us0378331005", "", ""), sec) {
		t.Error("ISIN match must be case-insensitive")
	}
	if listener.Matches(update("DE0005557508", "", ""), sec) {
		t.Error("Different ISIN must not match")
	}
}

func TestMatches_SymbolCaseInsensitive(t *testing.T) {
	sec := security("", "AAPL", "", "")

	if !listener.Matches(update("", "aapl", ""), sec) {
		t.Error("Symbol match must be case-insensitive")
	}
	if listener.Matches(update("", "MSFT", ""), sec) {
		t.Error("Different symbol must not match")
	}
}

func TestMatches_ISINTakesPriority(t *testing.T) {
	// Same symbol but different ISIN still matches via symbol; an ISIN on
	// the event that matches wins regardless of symbol.
	sec := security("US0378331005", "AAPL", "", "")

	if !listener.Matches(update("US0378331005", "WRONG", ""), sec) {
		t.Error("ISIN match must succeed even when symbols differ")
	}
	if !listener.Matches(update("DE0005557508", "AAPL", ""), sec) {
		t.Error("Symbol match must still be tried when ISIN differs")
	}
}

func TestMatches_CurrencyPreFilter(t *testing.T) {
	sec := security("", "AAPL", "USD", "")

	if !listener.Matches(update("", "AAPL", "usd"), sec) {
		t.Error("Currency match must be case-insensitive")
	}
	// Event in EUR, security trades in USD, no target currency set.
	if listener.Matches(update("", "AAPL", "EUR"), sec) {
		t.Error("Currency mismatch must veto an otherwise matching symbol")
	}
}

func TestMatches_CurrencyMismatchVetoesISIN(t *testing.T) {
	sec := security("US0378331005", "", "USD", "")

	if listener.Matches(update("US0378331005", "", "EUR"), sec) {
		t.Error("Currency mismatch must veto even an ISIN match")
	}
}

func TestMatches_TargetCurrencyFallback(t *testing.T) {
	// Trading currency absent, target currency present: compare against target.
	sec := security("", "AAPL", "", "EUR")

	if !listener.Matches(update("", "AAPL", "EUR"), sec) {
		t.Error("Target currency must serve as fallback when trading currency is absent")
	}
	if listener.Matches(update("", "AAPL", "USD"), sec) {
		t.Error("Mismatched target currency must fail the match")
	}
}

func TestMatches_NoFallbackWhenTradingCurrencyPresent(t *testing.T) {
	// Trading currency present and mismatched: target must not rescue it.
	sec := security("", "AAPL", "USD", "EUR")

	if listener.Matches(update("", "AAPL", "EUR"), sec) {
		t.Error("Target currency must not be consulted when trading currency is set")
	}
}

func TestMatches_BothCurrenciesAbsent(t *testing.T) {
	sec := security("", "AAPL", "", "")

	if listener.Matches(update("", "AAPL", "USD"), sec) {
		t.Error("Event currency with no security currency must fail")
	}
	if !listener.Matches(update("", "AAPL", ""), sec) {
		t.Error("No currency on either side skips the pre-filter")
	}
}

func TestMatches_NoIdentityOverlap(t *testing.T) {
	sec := security("US0378331005", "AAPL", "", "")

	if listener.Matches(update("", "", "USD"), sec) {
		t.Error("Event without identity fields must never match")
	}
	if listener.Matches(update("DE0005557508", "MSFT", ""), sec) {
		t.Error("Neither identity field matching must fail")
	}
}
