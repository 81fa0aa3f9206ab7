package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/mohitkumar/resolveflow/persistence/storetest"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *redisStorage {
	mr := miniredis.RunT(t)
	store := NewRedisStorage(Config{
		Addrs:     []string{mr.Addr()},
		Namespace: "test",
	})
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Storage {
		return newTestStorage(t)
	})
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	store := newTestStorage(t)
	require.Equal(t, "test:SESSION:s1", store.sessionKey("s1"))
	require.Equal(t, "test:ACTIVE:t1:shipping", store.activeKey("t1", "shipping"))
	require.Equal(t, `test:ACTIVE:a\:b:c`, store.activeKey("a:b", "c"))
	require.NotEqual(t, store.activeKey("a:b", "c"), store.activeKey("a", "b:c"))
}

func TestRedisSaveKeepsActiveKeyOfOtherSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now().UTC()
	session := &model.FlowSession{
		Id: "s1", FlowId: "f", Category: "shipping", ThreadId: "t1", StartedAt: now,
		CurrentNodeId: "n1", Status: model.SESSION_IN_PROGRESS, FlowState: model.NewFlowState(), IsActive: true,
	}
	require.NoError(t, store.CreateSession(ctx, session))
	session.IsActive = false
	session.Status = model.SESSION_COMPLETED
	require.NoError(t, store.SaveSession(ctx, session, "n1"))

	next := session.Clone()
	next.Id = "s2"
	next.IsActive = true
	next.Status = model.SESSION_IN_PROGRESS
	require.NoError(t, store.CreateSession(ctx, next))

	// saving the old inactive session again must not release s2's claim
	require.NoError(t, store.SaveSession(ctx, session, "n1"))
	active, err := store.GetActiveSession(ctx, "t1", "shipping")
	require.NoError(t, err)
	require.Equal(t, "s2", active.Id)
}
