//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	id "transferdesk/pkg/domain"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/audit/publishers/kafka"
	"transferdesk/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	broker string
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
}

func (s *KafkaSinkSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "transferdesk.audit.test"
	s.Require().NoError(kafka.EnsureTopic(ctx, []string{s.broker}, topic, 1, 1))
	// Creating an existing topic is not an error.
	s.Require().NoError(kafka.EnsureTopic(ctx, []string{s.broker}, topic, 1, 1))

	sink, err := kafka.New([]string{s.broker}, topic)
	s.Require().NoError(err)
	defer sink.Close()

	caseID := id.NewCaseID()
	s.Require().NoError(sink.Publish(ctx, audit.Event{
		CaseID:   caseID,
		Action:   string(audit.EventCaseDeleted),
		Category: audit.CategoryCompliance,
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	var got audit.Event
	fetches.EachRecord(func(r *kgo.Record) {
		if string(r.Key) == caseID.String() {
			s.Require().NoError(json.Unmarshal(r.Value, &got))
		}
	})
	s.Equal(caseID, got.CaseID)
	s.Equal(string(audit.EventCaseDeleted), got.Action)
}
