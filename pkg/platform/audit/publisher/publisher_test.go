package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "lexdraft/pkg/domain"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	profileID := id.NewProfileID()
	err := pub.Emit(context.Background(), audit.Event{
		ProfileID: profileID,
		Action:    string(audit.EventProfileCreated),
	})
	require.NoError(t, err)

	events, err := pub.ListByProfile(context.Background(), profileID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventProfileCreated), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	profileID := id.NewProfileID()
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			ProfileID: profileID,
			Action:    string(audit.EventValidationRun),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByProfile(context.Background(), profileID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventValidationRun)})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_CanceledContextInAsyncMode(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventValidationRun)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	profileID := id.NewProfileID()

	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{ProfileID: profileID, Action: "a"}))
	after := time.Now()

	custom := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{ProfileID: profileID, Action: "b", Timestamp: custom}))

	events, err := pub.ListByProfile(context.Background(), profileID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
	assert.Equal(t, custom, events[1].Timestamp)
	assert.Equal(t, audit.CategoryOperations, events[0].Category, "unknown actions default to operations")
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Emit(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func TestPublisher_Sinks(t *testing.T) {
	t.Run("stored events reach every sink", func(t *testing.T) {
		a, b := &recordingSink{}, &recordingSink{}
		pub := NewPublisher(memory.NewInMemoryStore(), WithSink(a), WithSink(b))

		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventFormSaved)}))
		assert.Len(t, a.events, 1)
		assert.Len(t, b.events, 1)
	})

	t.Run("sink failure does not fail the emit", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("broker down")}
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store, WithSink(sink))

		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventFormSaved)}))
		recent, err := store.ListRecent(context.Background(), 10)
		require.NoError(t, err)
		assert.Len(t, recent, 1)
	})
}

func TestPublisher_SinkOnly(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(nil, WithSink(sink))
	profileID := id.NewProfileID()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{ProfileID: profileID, Action: string(audit.EventFormSaved)}))

	require.Len(t, sink.events, 1)
	events, err := pub.ListByProfile(context.Background(), profileID)
	require.NoError(t, err)
	assert.Empty(t, events)
}
