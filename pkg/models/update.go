package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceUpdate is one decoded market-price event from the bus. Identifying
// fields are optional (empty = absent) but at least one of ISIN/Symbol is
// guaranteed present after decoding, and Price is positive.
type PriceUpdate struct {
	ISIN     string
	Symbol   string
	Currency string
	Price    decimal.Decimal
	Time     time.Time
}
