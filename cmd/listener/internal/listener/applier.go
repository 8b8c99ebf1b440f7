package listener

import (
	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// ApplyPrice writes the update into the security's latest-price slot and
// reports whether the stored value actually changed. The price is effective
// on the event instant's UTC day; high/low/volume stay not-available.
// Price validity (positive, finite) is enforced at decode time.
func ApplyPrice(sec *models.Security, ev models.PriceUpdate) bool {
	p := models.NewLatestPrice(ev.Time, ev.Price)
	return sec.PutLatestPrice(p, ev.Time)
}
