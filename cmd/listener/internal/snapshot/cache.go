package snapshot

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// PerformanceSnapshot is a computed view of a portfolio's latest prices at
// a point in time. Downstream readers (dashboards, report endpoints) reuse
// it until an invalidation drops it.
type PerformanceSnapshot struct {
	PortfolioID string
	Valuations  map[uuid.UUID]decimal.Decimal
	ComputedAt  time.Time
}

// Compute derives a snapshot from a portfolio's current latest-price slots.
// Securities without a price, and retired ones, carry no valuation.
func Compute(pf *models.Portfolio, at time.Time) PerformanceSnapshot {
	snap := PerformanceSnapshot{
		PortfolioID: pf.ID,
		Valuations:  make(map[uuid.UUID]decimal.Decimal),
		ComputedAt:  at,
	}
	for _, sec := range pf.Securities {
		if sec == nil || sec.Retired {
			continue
		}
		if p, ok := sec.LatestPrice(); ok {
			snap.Valuations[sec.ID] = p.Price
		}
	}
	return snap
}

// Cache memoizes per-portfolio snapshots and drops them when the price
// listener reports changed securities. It implements the listener's
// CacheInvalidator contract.
type Cache struct {
	logger *zap.Logger

	mu        sync.RWMutex
	snapshots map[string]PerformanceSnapshot
}

func NewCache(logger *zap.Logger) *Cache {
	return &Cache{
		logger:    logger,
		snapshots: make(map[string]PerformanceSnapshot),
	}
}

// Get returns the cached snapshot for a portfolio, if still valid.
func (c *Cache) Get(portfolioID string) (PerformanceSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.snapshots[portfolioID]
	return snap, ok
}

// GetOrCompute returns the cached snapshot or computes and caches a fresh one.
func (c *Cache) GetOrCompute(pf *models.Portfolio, at time.Time) PerformanceSnapshot {
	if snap, ok := c.Get(pf.ID); ok {
		return snap
	}

	snap := Compute(pf, at)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[pf.ID] = snap
	return snap
}

// OnPricesChanged drops the portfolio's cached snapshot so the next reader
// recomputes against fresh prices.
func (c *Cache) OnPricesChanged(portfolioID string, securityIDs []uuid.UUID) {
	c.mu.Lock()
	_, had := c.snapshots[portfolioID]
	delete(c.snapshots, portfolioID)
	c.mu.Unlock()

	if had {
		c.logger.Debug("Dropped stale performance snapshot",
			zap.String("portfolio_id", portfolioID),
			zap.Int("changed_securities", len(securityIDs)))
	}
}
