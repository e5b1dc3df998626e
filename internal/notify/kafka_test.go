package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"
)

// recordingProducer captures produced records in place of a live broker.
type recordingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.records = append(p.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func (p *recordingProducer) Close() {}

type PublisherSuite struct {
	suite.Suite
	recorder  *recordingProducer
	publisher *Publisher
	ctx       context.Context
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.recorder = &recordingProducer{}
	s.publisher = &Publisher{client: s.recorder, topic: "posintake.notifications"}
	s.ctx = context.Background()
}

func (s *PublisherSuite) TestSendProducesOneEventPerMessage() {
	appID := uuid.New()
	err := s.publisher.Send(s.ctx, Message{
		ApplicationID: appID,
		Channel:       ChannelEmail,
		Recipient:     "ayse@acme.example",
		Template:      TemplateStatusUpdated,
		Subject:       "Application status updated",
		Body:          "Your application moved to evaluation.",
	})
	s.Require().NoError(err)
	s.Require().Len(s.recorder.records, 1)

	record := s.recorder.records[0]
	s.Equal("posintake.notifications", record.Topic)
	s.Equal(appID.String(), string(record.Key), "records are keyed by application for per-application ordering")

	var event notificationEvent
	s.Require().NoError(json.Unmarshal(record.Value, &event))
	s.Equal(appID.String(), event.ApplicationID)
	s.Equal("email", event.Channel)
	s.Equal("ayse@acme.example", event.Recipient)
	s.Equal(TemplateStatusUpdated, event.Template)
	s.Equal("Application status updated", event.Subject)
	s.Equal("Your application moved to evaluation.", event.Body)

	producedAt, err := time.Parse(time.RFC3339, event.ProducedAt)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().UTC(), producedAt, time.Minute)
}

func (s *PublisherSuite) TestSendSurfacesProduceFailure() {
	s.recorder.err = errors.New("broker unavailable")

	err := s.publisher.Send(s.ctx, Message{
		ApplicationID: uuid.New(),
		Channel:       ChannelSMS,
		Recipient:     "05321234567",
		Template:      TemplateStatusUpdated,
		Body:          "short pointer",
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "produce notification event")
	s.Len(s.recorder.records, 1, "the record is still handed to the client once")
}
