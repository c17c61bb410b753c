package event

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

var errSubscriberDown = errors.New("subscriber down")

// flakyBus fails the first failures publishes and records every attempt
type flakyBus struct {
	mu        sync.Mutex
	attempts  []Event
	failures  int
	delivered int
}

func (b *flakyBus) Publish(ctx context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = append(b.attempts, evt)
	if len(b.attempts) <= b.failures {
		return errSubscriberDown
	}
	b.delivered++
	return nil
}

func (b *flakyBus) Subscribe(Type, Handler) {}

func (b *flakyBus) counts() (attempts, delivered int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.attempts), b.delivered
}

func newPublisher(t *testing.T, bus Bus, maxRetries int, delay time.Duration, opts ...PublisherOption) (*ResilientPublisher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deadletter.jsonl")
	rp, err := NewResilientPublisher(bus, maxRetries, delay, path, opts...)
	require.NoError(t, err)
	return rp, path
}

func deadLetters(t *testing.T, path string) []DeadLetterEntry {
	t.Helper()
	entries, err := ReadDeadLetters(path)
	require.NoError(t, err)
	return entries
}

func TestResilientPublisher_DeliversFirstTime(t *testing.T) {
	bus := &flakyBus{}
	rp, path := newPublisher(t, bus, 3, 10*time.Millisecond)

	rp.PublishWithRetry(context.Background(), NewLevelUpEvent("acct-1", 1, 2))
	require.NoError(t, rp.Shutdown(context.Background()))

	attempts, delivered := bus.counts()
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, delivered)
	assert.Empty(t, deadLetters(t, path))
}

func TestResilientPublisher_RetriesUntilDelivered(t *testing.T) {
	bus := &flakyBus{failures: 2}
	rp, path := newPublisher(t, bus, 5, 5*time.Millisecond)
	defer rp.Shutdown(context.Background())

	rp.PublishWithRetry(context.Background(), NewXPAwardedEvent("acct-1", domain.ReasonCatchLogged, "c1", 25, 25))

	assert.Eventually(t, func() bool {
		_, delivered := bus.counts()
		return delivered == 1
	}, time.Second, 5*time.Millisecond)

	attempts, _ := bus.counts()
	assert.Equal(t, 3, attempts)
	assert.Empty(t, deadLetters(t, path))
}

func TestResilientPublisher_DeadLettersAfterExhaustion(t *testing.T) {
	bus := &flakyBus{failures: 100}
	var hooked atomic.Int32
	rp, path := newPublisher(t, bus, 2, time.Millisecond, WithDeadLetterHook(func(Event) { hooked.Add(1) }))

	rp.PublishWithRetry(context.Background(), NewChallengeRevokedEvent("acct-9", "first_catch", 50))

	assert.Eventually(t, func() bool { return hooked.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, rp.Shutdown(context.Background()))

	attempts, delivered := bus.counts()
	assert.Equal(t, 3, attempts, "initial publish plus two retries")
	assert.Zero(t, delivered)

	entries := deadLetters(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, DeadLetterSchemaVersion, entries[0].SchemaVersion)
	assert.Equal(t, "acct-9", entries[0].AccountID)
	assert.Equal(t, ChallengeRevoked, entries[0].Event.Type)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.Equal(t, errSubscriberDown.Error(), entries[0].LastError)

	payload, err := DecodePayload[ChallengePayloadV1](entries[0].Event.Payload)
	require.NoError(t, err)
	assert.Equal(t, "first_catch", payload.Slug)
	assert.Equal(t, 50, payload.XP)
}

func TestResilientPublisher_ShutdownDrainsQueue(t *testing.T) {
	bus := &flakyBus{failures: 3}
	rp, path := newPublisher(t, bus, 5, time.Hour)

	for i := 0; i < 3; i++ {
		rp.PublishWithRetry(context.Background(), NewXPReversedEvent("acct-1", "c1", 10))
	}

	// Retries are an hour away; shutdown delivers them immediately
	require.NoError(t, rp.Shutdown(context.Background()))

	_, delivered := bus.counts()
	assert.Equal(t, 3, delivered)
	assert.Empty(t, deadLetters(t, path))
}

func TestResilientPublisher_QueueOverflowGoesToDeadLetter(t *testing.T) {
	bus := &flakyBus{failures: RetryQueueBufferSize * 10}
	rp, path := newPublisher(t, bus, 1, time.Hour)

	total := RetryQueueBufferSize + 5
	for i := 0; i < total; i++ {
		rp.PublishWithRetry(context.Background(), NewLevelUpEvent("acct-1", 1, 2))
	}

	overflowed := len(deadLetters(t, path))
	assert.GreaterOrEqual(t, overflowed, 4)

	require.NoError(t, rp.Shutdown(context.Background()))
	assert.Len(t, deadLetters(t, path), total, "every undelivered event is dead-lettered exactly once")
}

func TestResilientPublisher_ShutdownIsIdempotent(t *testing.T) {
	rp, _ := newPublisher(t, &flakyBus{}, 1, time.Millisecond)
	require.NoError(t, rp.Shutdown(context.Background()))
	assert.NotPanics(t, func() { _ = rp.Shutdown(context.Background()) })
}

func TestResilientPublisher_ConcurrentPublishes(t *testing.T) {
	bus := &flakyBus{}
	rp, _ := newPublisher(t, bus, 3, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rp.PublishWithRetry(context.Background(), NewLevelUpEvent("acct-1", 1, 2))
		}()
	}
	wg.Wait()
	require.NoError(t, rp.Shutdown(context.Background()))

	_, delivered := bus.counts()
	assert.Equal(t, 50, delivered)
}

func TestRetryBackoff(t *testing.T) {
	base := 2 * time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, RetryMaxDelay},
		{64, RetryMaxDelay},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryBackoff(base, tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDecodePayload(t *testing.T) {
	typed := LevelUpPayloadV1{AccountID: "acct-1", OldLevel: 1, NewLevel: 3}

	got, err := DecodePayload[LevelUpPayloadV1](typed)
	require.NoError(t, err)
	assert.Equal(t, typed, got)

	got, err = DecodePayload[LevelUpPayloadV1](&typed)
	require.NoError(t, err)
	assert.Equal(t, typed, got)

	got, err = DecodePayload[LevelUpPayloadV1](map[string]any{"account_id": "acct-1", "old_level": 1, "new_level": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, got.NewLevel)

	_, err = DecodePayload[LevelUpPayloadV1](nil)
	assert.Error(t, err)

	_, err = DecodePayload[LevelUpPayloadV1]("not an object")
	assert.Error(t, err)
}

func TestAccountIDOf(t *testing.T) {
	assert.Equal(t, "a", AccountIDOf(NewXPAwardedEvent("a", domain.ReasonPhotoAdded, "c", 12, 12)))
	assert.Equal(t, "b", AccountIDOf(NewChallengeCompletedEvent("b", "s", 1)))
	assert.Equal(t, "c", AccountIDOf(Event{Payload: map[string]any{"account_id": "c"}}))
	assert.Empty(t, AccountIDOf(Event{Payload: "x"}))
}

func TestReadDeadLetters_RejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dl.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"attempts\":1}\n\nnot-json\n"), 0o600))

	_, err := ReadDeadLetters(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
