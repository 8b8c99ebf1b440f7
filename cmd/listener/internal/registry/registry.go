package registry

import (
	"sync"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// Registry holds the currently loaded in-memory portfolios. Reads return
// best-effort snapshots: a portfolio may be unloaded between listing and
// lookup, and callers are expected to treat a miss as "skip".
type Registry struct {
	mu         sync.RWMutex
	portfolios map[string]*models.Portfolio
}

func New() *Registry {
	return &Registry{portfolios: make(map[string]*models.Portfolio)}
}

// Load registers a portfolio, replacing any previous snapshot with the same id.
func (r *Registry) Load(p *models.Portfolio) {
	if p == nil || p.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portfolios[p.ID] = p
}

// Unload removes a portfolio. Unknown ids are ignored.
func (r *Registry) Unload(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.portfolios, id)
}

// ListLoadedPortfolioIDs returns the ids of all loaded portfolios.
func (r *Registry) ListLoadedPortfolioIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.portfolios))
	for id := range r.portfolios {
		ids = append(ids, id)
	}
	return ids
}

// GetPortfolio returns the portfolio for an id, if still loaded.
func (r *Registry) GetPortfolio(id string) (*models.Portfolio, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.portfolios[id]
	return p, ok
}
