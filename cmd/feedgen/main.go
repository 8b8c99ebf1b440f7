package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/shubham-shewale/portfolio-price-stream/cmd/feedgen/internal/feedgen"
	"github.com/shubham-shewale/portfolio-price-stream/pkg/config"
)

var instruments = []feedgen.Instrument{
	{ISIN: "US0378331005", Symbol: "AAPL", Currency: "USD", BasePrice: 189.0},
	{ISIN: "US5949181045", Symbol: "MSFT", Currency: "USD", BasePrice: 410.0},
	{ISIN: "US88160R1014", Symbol: "TSLA", Currency: "USD", BasePrice: 200.0},
	{ISIN: "DE0007164600", Symbol: "SAP", Currency: "EUR", BasePrice: 175.0},
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Note: No .env file found, relying on System Env Vars")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	clock := feedgen.RealClock{}

	// Ensure the topic exists before producing
	tc := feedgen.NewTopicCreator(logger, &feedgen.RealKafkaDialer{Dialer: kafka.DefaultDialer}, clock)
	tc.Create(cfg.Kafka.Brokers, cfg.Kafka.Topic, 4)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	defer writer.Close()

	rnd := feedgen.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	gen := feedgen.NewTickGenerator(logger, writer, instruments, rnd, clock)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping generator...")
		cancel()
	}()

	gen.Run(ctx)
	logger.Info("Generator exited cleanly")
}
