package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shubham-shewale/portfolio-price-stream/cmd/feedgen/internal/feedgen"
)

type MockKafkaWriter struct {
	Messages []kafka.Message
	Mu       sync.Mutex
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error { return nil }

// MockClock advances instantly so generator loops run fast in tests
type MockClock struct {
	CurrentTime time.Time
	Mu          sync.Mutex
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) Sleep(d time.Duration) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.CurrentTime = m.CurrentTime.Add(d)
}

type MockRand struct {
	ValInt   int
	ValFloat float64
}

func (m *MockRand) Intn(n int) int   { return m.ValInt }
func (m *MockRand) Float64() float64 { return m.ValFloat }

// MockConnSpy records topic operations
type MockConnSpy struct {
	CreatedTopics []string
	Mu            sync.Mutex
}

func (c *MockConnSpy) Controller() (kafka.Broker, error) {
	return kafka.Broker{Host: "localhost", Port: 9092}, nil
}

func (c *MockConnSpy) Close() error { return nil }

func (c *MockConnSpy) CreateTopics(topics ...kafka.TopicConfig) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	for _, t := range topics {
		c.CreatedTopics = append(c.CreatedTopics, t.Topic)
	}
	return nil
}

func (c *MockConnSpy) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	return []kafka.Partition{{}}, nil
}

type MockKafkaDialer struct {
	ConnSpy *MockConnSpy
}

func (d *MockKafkaDialer) DialContext(ctx context.Context, network, address string) (feedgen.KafkaConn, error) {
	if d.ConnSpy == nil {
		d.ConnSpy = &MockConnSpy{}
	}
	return d.ConnSpy, nil
}
