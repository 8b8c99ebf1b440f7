package tests

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/listener"
	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/registry"
	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/snapshot"
	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/testutils"
	"github.com/shubham-shewale/portfolio-price-stream/pkg/config"
	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("Bad miniredis addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return config.RedisConfig{
		Enabled:          true,
		Host:             host,
		Port:             port,
		TimeoutMS:        500,
		ReconnectDelayMS: 50,
	}
}

// publish retries until the listener's subscription is visible to the broker
func publish(t *testing.T, mr *miniredis.Miniredis, payload string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mr.Publish("market:prices", payload) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("No subscriber on market:prices within deadline")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for: %s", msg)
}

func TestEndToEnd_PriceUpdateFlow(t *testing.T) {
	mr := miniredis.RunT(t)

	sec := &models.Security{
		ID:       uuid.New(),
		ISIN:     "US0378331005",
		Symbol:   "AAPL",
		Currency: "USD",
	}
	reg := registry.New()
	reg.Load(&models.Portfolio{ID: "client-a", Securities: []*models.Security{sec}})

	inv := &testutils.MockInvalidator{}

	l := listener.NewListener(redisConfigFor(t, mr), zap.NewNop(), reg, inv)
	l.Start()
	defer l.Stop()

	waitFor(t, 2*time.Second, func() bool { return l.State() == listener.StateSubscribed },
		"listener subscribed")

	publish(t, mr, `{"isin":"US0378331005","price":150.0}`)

	waitFor(t, 2*time.Second, func() bool { return inv.CallCount() == 1 },
		"invalidation after publish")

	p, ok := sec.LatestPrice()
	if !ok {
		t.Fatal("Security price not applied")
	}
	if !p.Price.Equal(decimal.NewFromFloat(150.0)) {
		t.Errorf("Expected 150.0, got %s", p.Price)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !p.Date.Equal(today) {
		t.Errorf("Expected price dated today (%v), got %v", today, p.Date)
	}

	call, _ := inv.CallFor("client-a")
	if len(call.SecurityIDs) != 1 || call.SecurityIDs[0] != sec.ID {
		t.Errorf("Invalidation carries wrong security ids: %v", call.SecurityIDs)
	}
}

func TestEndToEnd_SnapshotCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)

	sec := &models.Security{ID: uuid.New(), ISIN: "US0378331005", Currency: "USD"}
	pf := &models.Portfolio{ID: "client-a", Securities: []*models.Security{sec}}
	reg := registry.New()
	reg.Load(pf)

	cache := snapshot.NewCache(zap.NewNop())
	// Warm the cache before any price arrives.
	cache.GetOrCompute(pf, time.Now())

	l := listener.NewListener(redisConfigFor(t, mr), zap.NewNop(), reg, cache)
	l.Start()
	defer l.Stop()

	waitFor(t, 2*time.Second, func() bool { return l.State() == listener.StateSubscribed },
		"listener subscribed")

	publish(t, mr, `{"isin":"US0378331005","price":150.0}`)

	waitFor(t, 2*time.Second, func() bool {
		_, ok := cache.Get("client-a")
		return !ok
	}, "cached snapshot to be dropped")

	snap := cache.GetOrCompute(pf, time.Now())
	if !snap.Valuations[sec.ID].Equal(decimal.NewFromFloat(150.0)) {
		t.Errorf("Recomputed snapshot should see the new price, got %v", snap.Valuations)
	}
}

func TestEndToEnd_CurrencyMismatchLeavesStaleSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)

	sec := &models.Security{ID: uuid.New(), Symbol: "AAPL", Currency: "USD"}
	reg := registry.New()
	reg.Load(&models.Portfolio{ID: "client-a", Securities: []*models.Security{sec}})
	inv := &testutils.MockInvalidator{}

	l := listener.NewListener(redisConfigFor(t, mr), zap.NewNop(), reg, inv)
	l.Start()
	defer l.Stop()

	waitFor(t, 2*time.Second, func() bool { return l.State() == listener.StateSubscribed },
		"listener subscribed")

	publish(t, mr, `{"symbol":"AAPL","currency":"EUR","price":140.0}`)
	time.Sleep(100 * time.Millisecond)

	if _, ok := sec.LatestPrice(); ok {
		t.Error("EUR event must not update a USD security")
	}
	if inv.CallCount() != 0 {
		t.Error("No invalidation expected")
	}
}

func TestEndToEnd_ReconnectsAfterServerRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	sec := &models.Security{ID: uuid.New(), ISIN: "US0378331005", Currency: "USD"}
	reg := registry.New()
	reg.Load(&models.Portfolio{ID: "client-a", Securities: []*models.Security{sec}})
	inv := &testutils.MockInvalidator{}

	l := listener.NewListener(redisConfigFor(t, mr), zap.NewNop(), reg, inv)
	l.Start()
	defer l.Stop()

	waitFor(t, 2*time.Second, func() bool { return l.State() == listener.StateSubscribed },
		"listener subscribed")

	// Kill the server out from under the live subscription, then bring it
	// back on the same address.
	mr.Close()
	waitFor(t, 2*time.Second, func() bool { return l.State() != listener.StateSubscribed },
		"listener to notice the dead server")

	mr2 := miniredis.NewMiniRedis()
	if err := mr2.StartAddr(addr); err != nil {
		t.Fatalf("Restarting server on %s: %v", addr, err)
	}
	defer mr2.Close()

	waitFor(t, 5*time.Second, func() bool { return l.State() == listener.StateSubscribed },
		"listener resubscribed after restart")

	publish(t, mr2, `{"isin":"US0378331005","price":151.5}`)

	waitFor(t, 2*time.Second, func() bool { return inv.CallCount() == 1 },
		"invalidation after restart")

	p, ok := sec.LatestPrice()
	if !ok || !p.Price.Equal(decimal.NewFromFloat(151.5)) {
		t.Errorf("Price after restart wrong: ok=%v price=%+v", ok, p)
	}
}

func TestEndToEnd_StopIsPromptAndIdempotent(t *testing.T) {
	mr := miniredis.RunT(t)

	reg := registry.New()
	l := listener.NewListener(redisConfigFor(t, mr), zap.NewNop(), reg, &testutils.MockInvalidator{})
	l.Start()

	waitFor(t, 2*time.Second, func() bool { return l.State() == listener.StateSubscribed },
		"listener subscribed")

	start := time.Now()
	l.Stop()
	l.Stop()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop took %v", elapsed)
	}
	if l.State() != listener.StateStopped {
		t.Errorf("Expected stopped, got %v", l.State())
	}
}
