package listener

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/config"
)

// PriceChannel is the bus channel carrying market-price updates.
const PriceChannel = "market:prices"

const defaultStopGrace = 5 * time.Second

// Listener owns the subscribe/reconnect cycle for the price bus and applies
// inbound updates to every loaded portfolio. Exactly one background
// goroutine runs the Connecting/Subscribed/ReconnectWaiting cycle; Start
// and Stop are idempotent.
type Listener struct {
	cfg         config.RedisConfig
	logger      Logger
	registry    PortfolioRegistry
	invalidator CacheInvalidator

	dial      Dialer
	now       func() time.Time
	stopGrace time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	state atomic.Int32
}

func NewListener(cfg config.RedisConfig, logger Logger, registry PortfolioRegistry, invalidator CacheInvalidator) *Listener {
	l := &Listener{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		invalidator: invalidator,
		now:         time.Now,
		stopGrace:   defaultStopGrace,
	}
	l.dial = dialRedis(cfg)
	return l
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	l.state.Store(int32(s))
}

// Start launches the background worker. It returns immediately, is a no-op
// when the listener is disabled by config or already running.
func (l *Listener) Start() {
	if !l.cfg.Enabled {
		l.logger.Info("Price listener disabled by config")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.logger.Warn("Price listener already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go l.run(ctx, done)
}

// Stop cancels the worker and waits for it to exit, up to a bounded grace
// period. Safe to call multiple times and without a prior Start.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(l.stopGrace):
		l.logger.Warn("Price listener did not stop within grace period",
			zap.Duration("grace", l.stopGrace))
	}
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer l.setState(StateStopped)

	for {
		l.setState(StateConnecting)

		conn, err := l.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("Price bus connection failed",
				zap.Error(err),
				zap.Duration("retry_in", l.cfg.ReconnectDelay()))
			l.setState(StateReconnectWaiting)
			if !l.waitReconnect(ctx) {
				return
			}
			continue
		}

		l.setState(StateSubscribed)
		l.logger.Info("Subscribed to price bus",
			zap.String("channel", PriceChannel),
			zap.String("addr", l.cfg.Addr()))

		err = l.consume(ctx, conn)

		if cerr := conn.Close(); cerr != nil {
			l.logger.Debug("Error closing price bus connection", zap.Error(cerr))
		}
		if ctx.Err() != nil {
			return
		}

		l.logger.Warn("Price bus subscription lost",
			zap.Error(err),
			zap.Duration("retry_in", l.cfg.ReconnectDelay()))
		l.setState(StateReconnectWaiting)
		if !l.waitReconnect(ctx) {
			return
		}
	}
}

// waitReconnect sleeps for the configured delay. A stop request aborts the
// wait immediately; the return value says whether to keep running.
func (l *Listener) waitReconnect(ctx context.Context) bool {
	timer := time.NewTimer(l.cfg.ReconnectDelay())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// consume reads messages until the subscription fails or ctx is cancelled.
// Messages are processed strictly in delivery order.
func (l *Listener) consume(ctx context.Context, conn Conn) error {
	for {
		payload, err := conn.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		l.processMessage([]byte(payload))
	}
}

// processMessage runs one payload through decode/match/apply against every
// loaded portfolio. Any fault is contained here: a bad message never tears
// down the subscription.
func (l *Listener) processMessage(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Panic while processing price update",
				zap.Any("panic", r),
				zap.ByteString("payload", payload))
		}
	}()

	ev, err := DecodePriceUpdate(payload, l.now)
	if err != nil {
		l.logger.Debug("Dropping malformed price update",
			zap.Error(err),
			zap.ByteString("payload", payload))
		return
	}

	for _, id := range l.registry.ListLoadedPortfolioIDs() {
		pf, ok := l.registry.GetPortfolio(id)
		if !ok {
			// Unloaded between listing and lookup; not an error.
			continue
		}

		var changed []uuid.UUID
		for _, sec := range pf.Securities {
			if sec == nil || sec.Retired {
				continue
			}
			if !Matches(ev, sec) {
				continue
			}
			if ApplyPrice(sec, ev) {
				changed = append(changed, sec.ID)
			}
		}

		if len(changed) > 0 {
			l.notifyChanged(id, changed)
		}
	}
}

// notifyChanged fires the invalidation hook. The collaborator is
// best-effort: a panic there is logged and swallowed.
func (l *Listener) notifyChanged(portfolioID string, changed []uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Cache invalidator panicked",
				zap.Any("panic", r),
				zap.String("portfolio_id", portfolioID))
		}
	}()

	l.invalidator.OnPricesChanged(portfolioID, changed)
	l.logger.Debug("Invalidated snapshots",
		zap.String("portfolio_id", portfolioID),
		zap.Int("securities", len(changed)))
}
