package models

// Portfolio is a loaded client file's in-memory snapshot: an identifier and
// the securities it holds. The price listener never mutates the collection
// itself, only the latest-price slot of individual securities.
type Portfolio struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	Securities []*Security `json:"securities"`
}
