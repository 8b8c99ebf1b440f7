package listener

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// Logger abstracts the logging library
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Sync() error
}

// PortfolioRegistry is the collaborator holding the currently loaded
// portfolios. Both calls return best-effort snapshots and must be safe for
// concurrent use; a portfolio listed one moment may be gone the next.
type PortfolioRegistry interface {
	ListLoadedPortfolioIDs() []string
	GetPortfolio(id string) (*models.Portfolio, bool)
}

// CacheInvalidator is notified which securities changed, per portfolio.
// Fire-and-forget: a failing implementation must not take the listener down.
type CacheInvalidator interface {
	OnPricesChanged(portfolioID string, securityIDs []uuid.UUID)
}

// Conn is an established, subscribed bus connection.
type Conn interface {
	// ReceiveMessage blocks for the next payload on the price channel.
	ReceiveMessage(ctx context.Context) (string, error)
	Close() error
}

// Dialer opens and subscribes a bus connection.
type Dialer func(ctx context.Context) (Conn, error)
