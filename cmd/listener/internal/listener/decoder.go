package listener

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

var (
	// ErrNotAnObject means the payload is not a keyed JSON object.
	ErrNotAnObject = errors.New("payload is not a JSON object")
	// ErrMissingPrice means the price field is absent or non-numeric.
	ErrMissingPrice = errors.New("missing or non-numeric price")
	// ErrInvalidPrice means the price parsed but is not a positive finite value.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrMissingIdentifier means neither isin nor symbol is present.
	ErrMissingIdentifier = errors.New("neither isin nor symbol present")
)

// DecodePriceUpdate parses a raw bus payload into a price update. All
// failure paths return one of the sentinel errors above; the caller logs
// and drops the message. An absent or unparsable timestamp falls back to
// now().
func DecodePriceUpdate(payload []byte, now func() time.Time) (models.PriceUpdate, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return models.PriceUpdate{}, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	if raw == nil {
		// json.Decode accepts a literal null for a map.
		return models.PriceUpdate{}, fmt.Errorf("%w: null", ErrNotAnObject)
	}

	isin := stringField(raw, "isin")
	symbol := stringField(raw, "symbol")
	currency := stringField(raw, "currency")

	num, ok := raw["price"].(json.Number)
	if !ok {
		return models.PriceUpdate{}, ErrMissingPrice
	}
	price, err := decimal.NewFromString(num.String())
	if err != nil {
		return models.PriceUpdate{}, fmt.Errorf("%w: %v", ErrMissingPrice, err)
	}
	if price.Sign() <= 0 {
		return models.PriceUpdate{}, fmt.Errorf("%w: got %s", ErrInvalidPrice, price)
	}

	if isin == "" && symbol == "" {
		return models.PriceUpdate{}, ErrMissingIdentifier
	}

	at := now()
	if ts := stringField(raw, "timestamp"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			at = parsed
		}
	}

	return models.PriceUpdate{
		ISIN:     isin,
		Symbol:   symbol,
		Currency: currency,
		Price:    price,
		Time:     at,
	}, nil
}

// stringField extracts an optional trimmed string; blank counts as absent.
func stringField(raw map[string]any, key string) string {
	s, ok := raw[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
