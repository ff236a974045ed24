package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	hub := NewHub()

	sub, replay, err := hub.Subscribe("user-1")
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, replay)

	hub.Publish("user-1", Event{Kind: KindAdmitted, Tier: "free"})

	select {
	case ev := <-sub.Events():
		assert.Equal(t, KindAdmitted, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestReplayBufferIsBoundedAndNewestLast(t *testing.T) {
	hub := NewHub()

	warm, _, err := hub.Subscribe("user-1")
	require.NoError(t, err)
	defer warm.Close()

	for i := 0; i < DefaultBufferSize+10; i++ {
		hub.Publish("user-1", Event{Kind: KindAdmitted, Reason: "", Cached: i%2 == 0})
	}

	sub, replay, err := hub.Subscribe("user-1")
	require.NoError(t, err)
	defer sub.Close()
	assert.Len(t, replay, DefaultBufferSize)
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe("user-1")
	require.NoError(t, err)
	defer sub.Close()

	// Nobody drains the channel; publishing past its capacity must drop
	// instead of blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultSubscriberBuffer*4; i++ {
			hub.Publish("user-1", Event{Kind: KindRejected, Reason: "burst_exceeded"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestStreamsAreIsolatedPerUser(t *testing.T) {
	hub := NewHub()

	sub1, _, err := hub.Subscribe("user-1")
	require.NoError(t, err)
	defer sub1.Close()
	sub2, _, err := hub.Subscribe("user-2")
	require.NoError(t, err)
	defer sub2.Close()

	hub.Publish("user-1", Event{Kind: KindFailed, Reason: "backend_unavailable"})

	select {
	case <-sub2.Events():
		t.Fatal("event leaked across users")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseDetachesSubscriber(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe("user-1")
	require.NoError(t, err)
	sub.Close()
	sub.Close() // idempotent

	hub.Publish("user-1", Event{Kind: KindAdmitted})

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("closed subscription still receives events")
		}
	default:
	}
}
