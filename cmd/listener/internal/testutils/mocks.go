package testutils

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// MockRegistry simulates the portfolio registry with a fixed set of portfolios
type MockRegistry struct {
	Portfolios map[string]*models.Portfolio
	Mu         sync.Mutex
}

func NewMockRegistry(portfolios ...*models.Portfolio) *MockRegistry {
	m := &MockRegistry{Portfolios: make(map[string]*models.Portfolio)}
	for _, p := range portfolios {
		m.Portfolios[p.ID] = p
	}
	return m
}

func (m *MockRegistry) ListLoadedPortfolioIDs() []string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	ids := make([]string, 0, len(m.Portfolios))
	for id := range m.Portfolios {
		ids = append(ids, id)
	}
	return ids
}

func (m *MockRegistry) GetPortfolio(id string) (*models.Portfolio, bool) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	p, ok := m.Portfolios[id]
	return p, ok
}

// Remove simulates a portfolio being unloaded by another part of the system
func (m *MockRegistry) Remove(id string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	delete(m.Portfolios, id)
}

// InvalidationCall records one OnPricesChanged call
type InvalidationCall struct {
	PortfolioID string
	SecurityIDs []uuid.UUID
}

// MockInvalidator records invalidation calls; optionally panics to test
// fault containment.
type MockInvalidator struct {
	Calls  []InvalidationCall
	Panics bool
	Mu     sync.Mutex
}

func (m *MockInvalidator) OnPricesChanged(portfolioID string, securityIDs []uuid.UUID) {
	if m.Panics {
		panic("invalidator exploded")
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, InvalidationCall{PortfolioID: portfolioID, SecurityIDs: securityIDs})
}

func (m *MockInvalidator) CallCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Calls)
}

// CallFor returns the recorded call for a portfolio id, if any
func (m *MockInvalidator) CallFor(portfolioID string) (InvalidationCall, bool) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for _, c := range m.Calls {
		if c.PortfolioID == portfolioID {
			return c, true
		}
	}
	return InvalidationCall{}, false
}

// ScriptedConn replays a fixed sequence of payloads, then blocks until the
// context is cancelled (or reports EOF if FailAfter is set, simulating a
// broker-initiated subscription end).
type ScriptedConn struct {
	Payloads  []string
	FailAfter bool

	Mu       sync.Mutex
	Index    int
	CloseCnt int
}

func (c *ScriptedConn) ReceiveMessage(ctx context.Context) (string, error) {
	c.Mu.Lock()
	if c.Index < len(c.Payloads) {
		p := c.Payloads[c.Index]
		c.Index++
		c.Mu.Unlock()
		return p, nil
	}
	fail := c.FailAfter
	c.Mu.Unlock()

	if fail {
		return "", io.EOF
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func (c *ScriptedConn) Close() error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.CloseCnt++
	return nil
}
