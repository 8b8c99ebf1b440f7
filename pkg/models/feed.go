package models

// FeedTick represents a single upstream market tick as carried on Kafka,
// before the bridge normalizes it onto the price bus.
type FeedTick struct {
	ISIN      string  `json:"isin,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // monotonic counter per instrument
}

// Key is the identity used for sharding and deduplication: ISIN when
// present, symbol otherwise.
func (t FeedTick) Key() string {
	if t.ISIN != "" {
		return t.ISIN
	}
	return t.Symbol
}
