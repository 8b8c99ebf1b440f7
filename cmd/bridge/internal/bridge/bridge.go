package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/config"
	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// priceChannel is the bus channel the portfolio listener subscribes to.
const priceChannel = "market:prices"

// busUpdate is the normalized payload published to the price bus.
type busUpdate struct {
	ISIN      string  `json:"isin,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Bridge moves upstream Kafka market ticks onto the Redis price bus:
// dedup by sequence, normalize, then SET the latest quote and PUBLISH in
// one pipeline so bus subscribers and key readers agree.
type Bridge struct {
	cfg        *config.Config
	logger     Logger
	rdb        RedisClient
	reader     KafkaReader
	numWorkers int
}

func NewBridge(cfg *config.Config, logger Logger, rdb RedisClient, reader KafkaReader) *Bridge {
	return &Bridge{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		reader:     reader,
		numWorkers: cfg.Bridge.NumWorkers,
	}
}

func (b *Bridge) Run(ctx context.Context) error {
	workerChans := make([]chan []byte, b.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < b.numWorkers; i++ {
		workerChans[i] = make(chan []byte, 100)
		wg.Add(1)
		go b.worker(i, workerChans[i], &wg)
	}

	go func() {
		b.logger.Info("Bridge consuming ticks", zap.Int("workers", b.numWorkers))
		for {
			m, err := b.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				b.logger.Error("Tick read failed", zap.Error(err))
				continue
			}

			// Same instrument always lands on the same worker, which keeps
			// per-instrument order and makes the seq dedup local
			workerID := getWorkerID(m.Key, b.numWorkers)

			select {
			case workerChans[workerID] <- m.Value:
			case <-ctx.Done():
				return
			default:
				b.logger.Warn("Worker queue full, shedding tick", zap.String("key", string(m.Key)), zap.Int("worker_id", workerID))
			}
		}
	}()

	<-ctx.Done()
	b.logger.Info("Bridge stopping, draining workers")

	for _, ch := range workerChans {
		close(ch)
	}
	wg.Wait()
	b.logger.Info("Bridge stopped")

	return nil
}

func (b *Bridge) worker(id int, msgs <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()
	ctx := context.Background()

	// Safe without locking: sharding guarantees a key is only ever seen here
	lastSeq := make(map[string]int64)

	for payload := range msgs {
		var tick models.FeedTick
		if err := json.Unmarshal(payload, &tick); err != nil {
			b.logger.Error("Malformed tick payload", zap.Error(err))
			continue
		}

		key := tick.Key()
		if key == "" {
			b.logger.Debug("Skipping tick without identity")
			continue
		}
		if tick.Price <= 0 {
			b.logger.Debug("Skipping tick with non-positive price", zap.String("key", key))
			continue
		}

		if tick.SeqID <= lastSeq[key] {
			b.logger.Debug("Skipping duplicate tick", zap.String("key", key), zap.Int64("seq_id", tick.SeqID))
			continue
		}

		out, err := json.Marshal(normalize(tick))
		if err != nil {
			b.logger.Error("Encoding bus payload failed", zap.Error(err))
			continue
		}

		// Atomic SET + PUBLISH in a single pipeline
		pipe := b.rdb.Pipeline()
		pipe.Set(ctx, "quote:"+key, out, b.cfg.Bridge.QuoteTTL())
		pipe.Publish(ctx, priceChannel, out)

		if _, err := pipe.Exec(ctx); err != nil {
			b.logger.Error("Quote pipeline failed", zap.Error(err), zap.String("key", key))
		} else {
			b.logger.Debug("Bridged", zap.String("key", key), zap.Int("worker_id", id))
			lastSeq[key] = tick.SeqID
		}
	}
}

// normalize converts an upstream tick to the bus payload the listener
// decodes. Unix-micro timestamps become RFC 3339 instants.
func normalize(tick models.FeedTick) busUpdate {
	u := busUpdate{
		ISIN:     tick.ISIN,
		Symbol:   tick.Symbol,
		Currency: tick.Currency,
		Price:    tick.Price,
	}
	if tick.Timestamp > 0 {
		u.Timestamp = time.UnixMicro(tick.Timestamp).UTC().Format(time.RFC3339)
	}
	return u
}

func getWorkerID(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32()) % numWorkers
}
