// Package ingest publishes accepted location pings to Kafka for downstream
// analytics. Publishing is best effort and never blocks a location report.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"swiftcab/internal/types"
)

type LocationEvent struct {
	DriverID   types.ID `json:"driver_id"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	ReportedAt int64    `json:"reported_at"` // epoch millis
}

type LocationProducer struct {
	writer *kafka.Writer
}

func NewLocationProducer(brokers []string, topic string) *LocationProducer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &LocationProducer{writer: w}
}

func (p *LocationProducer) Publish(e LocationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.DriverID),
		Value: b,
	})
}

func (p *LocationProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
