package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the slice of the kgo client the publisher uses. Tests swap
// in a recorder.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher is a Sink that hands messages to a Kafka topic instead of
// delivering them directly. A downstream delivery worker owns the actual
// send, which keeps provider credentials out of this service.
type Publisher struct {
	client producer
	topic  string
}

// notificationEvent is the wire shape produced to the topic.
type notificationEvent struct {
	ApplicationID string `json:"application_id"`
	Channel       string `json:"channel"`
	Recipient     string `json:"recipient"`
	Template      string `json:"template"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	ProducedAt    string `json:"produced_at"`
}

// NewPublisher connects to the brokers and ensures the topic exists.
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", topic, res.Err)
		}
	}
	return &Publisher{client: client, topic: topic}, nil
}

func (p *Publisher) Send(ctx context.Context, msg Message) error {
	event := notificationEvent{
		ApplicationID: msg.ApplicationID.String(),
		Channel:       string(msg.Channel),
		Recipient:     msg.Recipient,
		Template:      msg.Template,
		Subject:       msg.Subject,
		Body:          msg.Body,
		ProducedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(msg.ApplicationID.String()),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
