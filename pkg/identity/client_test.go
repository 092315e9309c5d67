package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/identity"
)

type sessionLog struct {
	mu   sync.Mutex
	seen []*identity.Session
}

func (l *sessionLog) record(s *identity.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, s)
}

func (l *sessionLog) snapshot() []*identity.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*identity.Session(nil), l.seen...)
}

func TestClient_SessionChangesReachOtherClients(t *testing.T) {
	t.Parallel()
	svc, sender := newService(t)
	ctx := context.Background()

	watcher := svc.Client(ctx, browserA)
	defer watcher.Close()
	assert.Nil(t, watcher.CurrentSession())

	var log sessionLog
	unsubscribe := watcher.SubscribeToSessionChanges(log.record)
	defer unsubscribe()

	actor := svc.Client(ctx, browserA)
	defer actor.Close()

	require.NoError(t, actor.DispatchSignInLink(ctx, "alice@example.com", continueURL))
	link := sender.lastLink(t)
	require.True(t, actor.IsSignInLink(link))

	sess, err := actor.CompleteSignInWithLink(ctx, "alice@example.com", link)
	require.NoError(t, err)
	require.NotNil(t, actor.CurrentSession(), "acting client updates its cache synchronously")

	assert.Eventually(t, func() bool {
		seen := log.snapshot()
		return len(seen) == 1 && seen[0] != nil && seen[0].ID == sess.ID
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		cur := watcher.CurrentSession()
		return cur != nil && cur.ID == sess.ID
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, actor.SignOut(ctx))
	assert.Nil(t, actor.CurrentSession())
	assert.Eventually(t, func() bool {
		seen := log.snapshot()
		return len(seen) == 2 && seen[1] == nil
	}, time.Second, 5*time.Millisecond)
}

func TestClient_OtherBrowsersAreIsolated(t *testing.T) {
	t.Parallel()
	svc, sender := newService(t)
	ctx := context.Background()

	other := svc.Client(ctx, browserB)
	defer other.Close()
	var log sessionLog
	other.SubscribeToSessionChanges(log.record)

	actor := svc.Client(ctx, browserA)
	defer actor.Close()
	require.NoError(t, actor.DispatchSignInLink(ctx, "alice@example.com", continueURL))
	_, err := actor.CompleteSignInWithLink(ctx, "alice@example.com", sender.lastLink(t))
	require.NoError(t, err)

	assert.Never(t, func() bool { return len(log.snapshot()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Nil(t, other.CurrentSession())
}

func TestClient_UnsubscribeAndClose(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	c := svc.Client(ctx, browserA)
	var log sessionLog
	unsubscribe := c.SubscribeToSessionChanges(log.record)
	unsubscribe()
	unsubscribe()

	require.NoError(t, svc.SignOut(ctx, browserA))
	assert.Never(t, func() bool { return len(log.snapshot()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestClient_LoadsExistingSession(t *testing.T) {
	t.Parallel()
	svc, sender := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.DispatchSignInLink(ctx, browserA, "alice@example.com", continueURL))
	sess, err := svc.CompleteSignInWithLink(ctx, browserA, "alice@example.com", sender.lastLink(t))
	require.NoError(t, err)

	c := svc.Client(ctx, browserA)
	defer c.Close()
	require.NotNil(t, c.CurrentSession())
	assert.Equal(t, sess.ID, c.CurrentSession().ID)
	assert.Equal(t, browserA, c.BrowserID())
}
