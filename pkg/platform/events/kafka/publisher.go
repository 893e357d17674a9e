// Package kafka publishes event envelopes to a Kafka topic, keyed by
// aggregate id so every event of one document or shipment lands on the same
// partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"exportdocs/pkg/platform/events"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher writes envelopes as JSON records.
type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// Publish produces all envelopes and waits for every acknowledgement.
func (p *Publisher) Publish(ctx context.Context, evs ...events.Envelope) error {
	if len(evs) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(evs))
	for _, e := range evs {
		rec, err := p.record(e)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	if err := p.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) record(e events.Envelope) (*kgo.Record, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.AggregateID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "organization_id", Value: []byte(e.OrganizationID.String())},
		},
	}, nil
}
