package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "transferdesk/pkg/domain"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/audit/store/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(store, WithSink(sink))
	defer pub.Close()

	caseID := id.NewCaseID()
	err := pub.Emit(context.Background(), audit.Event{
		CaseID: caseID,
		Action: string(audit.EventCaseCreated),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), caseID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, 1, sink.count())
}

func TestPublisher_SinkFailureDoesNotFailEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithSink(&recordingSink{err: errors.New("broker down")}))

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCaseUpdated)})
	require.NoError(t, err)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(store, WithAsyncBuffer(10), WithSink(sink))

	caseID := id.NewCaseID()
	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			CaseID:    caseID,
			Action:    string(audit.EventCaseStatusChanged),
			Timestamp: time.Now(),
		}))
	}
	pub.Close()

	events, err := pub.List(context.Background(), caseID)
	require.NoError(t, err)
	assert.Len(t, events, 5)
	assert.Equal(t, 5, sink.count())
}

func TestCategoryDerivedFromAction(t *testing.T) {
	assert.Equal(t, audit.CategorySecurity, audit.EventScopeDenied.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
