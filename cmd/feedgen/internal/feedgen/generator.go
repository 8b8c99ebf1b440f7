package feedgen

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// Instrument is one synthetic security the generator produces ticks for.
type Instrument struct {
	ISIN      string
	Symbol    string
	Currency  string
	BasePrice float64
}

// TickGenerator emits a random walk of FeedTicks for a fixed instrument
// set, keyed for per-instrument ordering downstream.
type TickGenerator struct {
	logger      *zap.Logger
	writer      KafkaWriter
	instruments []Instrument
	rand        Rand
	clock       Clock
	seqCounters map[string]int64
}

func NewTickGenerator(
	logger *zap.Logger,
	writer KafkaWriter,
	instruments []Instrument,
	rnd Rand,
	clock Clock,
) *TickGenerator {
	return &TickGenerator{
		logger:      logger,
		writer:      writer,
		instruments: instruments,
		rand:        rnd,
		clock:       clock,
		seqCounters: make(map[string]int64),
	}
}

func (tg *TickGenerator) Run(ctx context.Context) {
	tg.logger.Info("Feed generator started", zap.Int("instruments", len(tg.instruments)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if len(tg.instruments) == 0 {
				tg.clock.Sleep(1 * time.Second)
				continue
			}

			inst := tg.instruments[tg.rand.Intn(len(tg.instruments))]
			fluctuation := (tg.rand.Float64() * 10) - 5
			price := inst.BasePrice + fluctuation

			tick := models.FeedTick{
				ISIN:      inst.ISIN,
				Symbol:    inst.Symbol,
				Currency:  inst.Currency,
				Price:     price,
				Timestamp: tg.clock.Now().UnixMicro(),
			}
			tg.seqCounters[tick.Key()]++
			tick.SeqID = tg.seqCounters[tick.Key()]

			payload, _ := json.Marshal(tick) // Error ignored for simplicity in loop

			err := tg.writer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(tick.Key()),
				Value: payload,
			})
			if err != nil {
				tg.logger.Error("Kafka Write Error", zap.Error(err))
			}

			tg.clock.Sleep(100 * time.Millisecond)
		}
	}
}
