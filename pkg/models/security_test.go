package models_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

func TestPutLatestPrice_ReportsChange(t *testing.T) {
	sec := &models.Security{ID: uuid.New(), ISIN: "US0378331005"}
	at := time.Date(2024, 3, 1, 14, 32, 0, 0, time.UTC)
	p := models.NewLatestPrice(at, decimal.NewFromFloat(189.42))

	if !sec.PutLatestPrice(p, at) {
		t.Error("First apply must report a change")
	}
	if !sec.UpdatedAt().Equal(at) {
		t.Errorf("UpdatedAt not stamped: got %v", sec.UpdatedAt())
	}

	got, ok := sec.LatestPrice()
	if !ok {
		t.Fatal("Latest price slot should be populated")
	}
	if !got.Price.Equal(decimal.NewFromFloat(189.42)) {
		t.Errorf("Expected 189.42, got %s", got.Price)
	}
	if got.Volume != models.VolumeNotAvailable {
		t.Error("Volume should default to not available")
	}
	if got.High.Valid || got.Low.Valid {
		t.Error("High/Low should default to not available")
	}
}

func TestPutLatestPrice_Idempotent(t *testing.T) {
	sec := &models.Security{ID: uuid.New()}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	later := at.Add(2 * time.Hour)

	sec.PutLatestPrice(models.NewLatestPrice(at, decimal.NewFromInt(150)), at)

	// Same calendar day, same value: no change, updated-at untouched.
	if sec.PutLatestPrice(models.NewLatestPrice(later, decimal.NewFromInt(150)), later) {
		t.Error("Same (date, price) must report unchanged")
	}
	if !sec.UpdatedAt().Equal(at) {
		t.Error("UpdatedAt must not move on an unchanged apply")
	}
}

func TestPutLatestPrice_PriceChangeSameDay(t *testing.T) {
	sec := &models.Security{ID: uuid.New()}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	sec.PutLatestPrice(models.NewLatestPrice(at, decimal.NewFromInt(150)), at)
	if !sec.PutLatestPrice(models.NewLatestPrice(at, decimal.NewFromInt(151)), at) {
		t.Error("Different price on the same day must report changed")
	}
}

func TestNewLatestPrice_DayPrecision(t *testing.T) {
	at := time.Date(2024, 3, 1, 23, 59, 59, 0, time.FixedZone("CET", 3600))
	p := models.NewLatestPrice(at, decimal.NewFromInt(1))

	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !p.Date.Equal(want) {
		t.Errorf("Expected UTC day %v, got %v", want, p.Date)
	}
}

func TestLatestPrice_ConcurrentAccess(t *testing.T) {
	// Run with `go test -race ./...`
	sec := &models.Security{ID: uuid.New()}
	at := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sec.PutLatestPrice(models.NewLatestPrice(at, decimal.NewFromInt(int64(100+n))), at)
			sec.LatestPrice()
		}(i)
	}
	wg.Wait()

	if _, ok := sec.LatestPrice(); !ok {
		t.Error("Slot should hold some price after concurrent writes")
	}
}
