package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) broadcast.Message[T] {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return broadcast.Message[T]{}
}

func TestHub_PublishToTopic(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[string](4)
	defer hub.Close()

	a := hub.Subscribe(context.Background(), "a")
	b := hub.Subscribe(context.Background(), "b")

	assert.Equal(t, 1, hub.Publish(context.Background(), "a", "hello"))

	msg := receive(t, a)
	assert.Equal(t, "a", msg.Topic)
	assert.Equal(t, "hello", msg.Data)

	select {
	case <-b.Receive():
		t.Fatal("subscriber of another topic received a message")
	default:
	}
}

func TestHub_FanOut(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[int](1)
	defer hub.Close()

	subs := make([]broadcast.Subscriber[int], 3)
	for i := range subs {
		subs[i] = hub.Subscribe(context.Background(), "t")
	}
	assert.Equal(t, 3, hub.Publish(context.Background(), "t", 7))
	for _, s := range subs {
		assert.Equal(t, 7, receive(t, s).Data)
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[int](1)
	defer hub.Close()

	sub := hub.Subscribe(context.Background(), "t")
	assert.Equal(t, 1, hub.Publish(context.Background(), "t", 1))
	assert.Equal(t, 0, hub.Publish(context.Background(), "t", 2))
	assert.Equal(t, 1, receive(t, sub).Data)
	assert.Equal(t, 1, hub.Subscribers("t"))
}

func TestHub_CloseSubscriber(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[int](1)
	defer hub.Close()

	sub := hub.Subscribe(context.Background(), "t")
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Receive()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("t"))
	assert.Equal(t, 0, hub.Publish(context.Background(), "t", 1))
}

func TestHub_ContextCancel(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[int](1)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := hub.Subscribe(ctx, "t")
	cancel()

	assert.Eventually(t, func() bool { return hub.Subscribers("t") == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-sub.Receive()
	assert.False(t, ok)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[int](1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := hub.Subscribe(ctx, "t")

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_, ok := <-sub.Receive()
	assert.False(t, ok)

	late := hub.Subscribe(context.Background(), "t")
	_, ok = <-late.Receive()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Publish(context.Background(), "t", 1))
}

func TestHub_Concurrent(t *testing.T) {
	t.Parallel()
	hub := broadcast.NewHub[int](64)
	defer hub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sub := hub.Subscribe(ctx, "t")
			for i := range 10 {
				hub.Publish(ctx, "t", i)
			}
			_ = sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Subscribers("t"))
}
