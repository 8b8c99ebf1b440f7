package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VolumeNotAvailable marks an absent trading volume on a LatestPrice.
const VolumeNotAvailable int64 = -1

// LatestPrice is the single most recent price attached to a security,
// distinct from any historical series. High/Low/Volume default to
// not-available.
type LatestPrice struct {
	Date   time.Time           `json:"date"`
	Price  decimal.Decimal     `json:"price"`
	High   decimal.NullDecimal `json:"high,omitempty"`
	Low    decimal.NullDecimal `json:"low,omitempty"`
	Volume int64               `json:"volume"`
}

// NewLatestPrice builds a price record effective on the given instant's UTC
// calendar day, with High/Low/Volume not available.
func NewLatestPrice(at time.Time, price decimal.Decimal) LatestPrice {
	utc := at.UTC()
	return LatestPrice{
		Date:   time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC),
		Price:  price,
		Volume: VolumeNotAvailable,
	}
}

// SameAs reports semantic equality: same effective date and same price value.
func (p LatestPrice) SameAs(o LatestPrice) bool {
	return p.Date.Equal(o.Date) && p.Price.Equal(o.Price)
}

// Security is a financial instrument held in a portfolio. Identifying fields
// are optional except the ID; the latest-price slot is guarded so a
// concurrent reader never observes a half-written record.
type Security struct {
	ID             uuid.UUID `json:"id"`
	ISIN           string    `json:"isin,omitempty"`
	Symbol         string    `json:"symbol,omitempty"`
	Currency       string    `json:"currency,omitempty"`        // trading currency
	TargetCurrency string    `json:"target_currency,omitempty"` // base currency for reporting
	Retired        bool      `json:"retired,omitempty"`

	mu        sync.Mutex
	latest    *LatestPrice
	updatedAt time.Time
}

// PutLatestPrice replaces the latest-price slot only if the candidate is
// semantically different from what is stored, stamping the security's
// updated-at marker with the event instant on change. It reports whether a
// change occurred.
func (s *Security) PutLatestPrice(p LatestPrice, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil && s.latest.SameAs(p) {
		return false
	}
	cp := p
	s.latest = &cp
	s.updatedAt = at
	return true
}

// LatestPrice returns a copy of the current latest-price slot, if any.
func (s *Security) LatestPrice() (LatestPrice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return LatestPrice{}, false
	}
	return *s.latest, true
}

// UpdatedAt returns when the latest-price slot last changed.
func (s *Security) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
