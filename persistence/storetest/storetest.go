// Package storetest holds the behaviour every persistence backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/stretchr/testify/require"
)

// Run executes every scenario against a fresh store from newStorage.
func Run(t *testing.T, newStorage func(t *testing.T) persistence.Storage) {
	for scenario, fn := range map[string]func(
		t *testing.T, store persistence.Storage,
	){
		"create and get session":           testCreateGetSession,
		"active session is unique":         testActiveUnique,
		"save rejects stale node":          testSaveStale,
		"inactive session frees category":  testInactiveFreesCategory,
		"thread sessions ordered by start": testThreadSessions,
		"attachments append and clear":     testAttachments,
		"continuations are recorded":       testContinuations,
		"flow definitions":                 testFlowDefinitions,
		"templates listed by category":     testTemplates,
		"product selection creates thread": testProductSelection,
		"missing records return not found": testNotFound,
		"ids containing colons stay apart": testColonIds,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newStorage(t))
		})
	}
}

func newSession(id string, thread string, category string, startedAt time.Time) *model.FlowSession {
	state := model.NewFlowState()
	return &model.FlowSession{
		Id:            id,
		FlowId:        category + "_flow",
		Category:      category,
		ThreadId:      thread,
		StartedAt:     startedAt,
		UpdatedAt:     startedAt,
		CurrentNodeId: "n1",
		Status:        model.SESSION_IN_PROGRESS,
		FlowState:     state,
		IsActive:      true,
	}
}

func testCreateGetSession(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	session := newSession("s1", "t1", "shipping", time.Now().UTC().Truncate(time.Second))
	session.FlowState.Set("n0", model.TextResponse("lost"))
	require.NoError(t, store.CreateSession(ctx, session))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "n1", got.CurrentNodeId)
	require.True(t, got.IsActive)
	require.Equal(t, []string{"n0"}, got.FlowState.Keys())
	resp, ok := got.FlowState.Get("n0")
	require.True(t, ok)
	require.Equal(t, model.TextResponse("lost"), resp)

	active, err := store.GetActiveSession(ctx, "t1", "shipping")
	require.NoError(t, err)
	require.Equal(t, "s1", active.Id)
}

func testActiveUnique(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.CreateSession(ctx, newSession("s1", "t1", "shipping", now)))

	err := store.CreateSession(ctx, newSession("s2", "t1", "shipping", now))
	var exists persistence.ActiveSessionExistsError
	require.True(t, errors.As(err, &exists))
	require.Equal(t, "s1", exists.ActiveSessionId)

	require.NoError(t, store.CreateSession(ctx, newSession("s3", "t1", "damage", now)))
	require.NoError(t, store.CreateSession(ctx, newSession("s4", "t2", "shipping", now)))
}

func testSaveStale(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	session := newSession("s1", "t1", "shipping", time.Now().UTC())
	require.NoError(t, store.CreateSession(ctx, session))

	session.FlowState.Set("n1", model.TextResponse("hello"))
	session.CurrentNodeId = "n2"
	require.NoError(t, store.SaveSession(ctx, session, "n1"))

	session.CurrentNodeId = "n3"
	err := store.SaveSession(ctx, session, "n1")
	var stale persistence.StaleSessionError
	require.True(t, errors.As(err, &stale))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "n2", got.CurrentNodeId)
	require.Equal(t, 1, got.FlowState.Len())
}

func testInactiveFreesCategory(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	now := time.Now().UTC()
	session := newSession("s1", "t1", "shipping", now)
	require.NoError(t, store.CreateSession(ctx, session))

	session.IsActive = false
	session.Status = model.SESSION_ABANDONED
	require.NoError(t, store.SaveSession(ctx, session, "n1"))

	_, err := store.GetActiveSession(ctx, "t1", "shipping")
	require.True(t, persistence.IsNotFound(err))
	require.NoError(t, store.CreateSession(ctx, newSession("s2", "t1", "shipping", now.Add(time.Second))))
}

func testThreadSessions(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.CreateSession(ctx, newSession("b", "t1", "damage", base.Add(2*time.Second))))
	require.NoError(t, store.CreateSession(ctx, newSession("a", "t1", "shipping", base)))
	require.NoError(t, store.CreateSession(ctx, newSession("c", "t2", "shipping", base)))

	sessions, err := store.ListThreadSessions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "a", sessions[0].Id)
	require.Equal(t, "b", sessions[1].Id)

	sessions, err = store.ListThreadSessions(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func testAttachments(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.AppendAttachment(ctx, "s1", "photos", model.Attachment{Id: "a2", FileName: "b.png", UploadedAt: now}))
	require.NoError(t, store.AppendAttachment(ctx, "s1", "photos", model.Attachment{Id: "a1", FileName: "a.png", UploadedAt: now}))
	require.NoError(t, store.AppendAttachment(ctx, "s1", "other", model.Attachment{Id: "a3", FileName: "c.png", UploadedAt: now}))

	list, err := store.ListAttachments(ctx, "s1", "photos")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a2", list[0].Id)
	require.Equal(t, "a1", list[1].Id)

	require.NoError(t, store.ClearAttachments(ctx, "s1", "photos"))
	list, err = store.ListAttachments(ctx, "s1", "photos")
	require.NoError(t, err)
	require.Empty(t, list)

	list, err = store.ListAttachments(ctx, "s1", "other")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func testContinuations(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.RecordContinuation(ctx, model.Continuation{Id: "c1", FromSessionId: "s1", ToSessionId: "s2", ThreadId: "t1", CreatedAt: now}))
	require.NoError(t, store.RecordContinuation(ctx, model.Continuation{Id: "c2", FromSessionId: "s1", ToSessionId: "s3", ThreadId: "t1", CreatedAt: now.Add(time.Second)}))

	list, err := store.ListContinuations(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "s2", list[0].ToSessionId)
	require.Equal(t, "s3", list[1].ToSessionId)
}

func testFlowDefinitions(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	flow := model.FlowDefinition{
		Id:       "shipping_flow",
		Name:     "Shipping",
		Category: "shipping",
		Nodes: []model.FlowNode{
			{Id: "intro", Type: model.NODE_TYPE_INFO, Content: "Hi"},
			{Id: "done", Type: model.NODE_TYPE_COMPLETION, Content: "Bye", Metadata: model.NodeMetadata{Resolution: "resolved"}},
		},
	}
	require.NoError(t, store.SaveFlowDefinition(ctx, flow))

	got, err := store.GetFlowDefinition(ctx, "shipping_flow")
	require.NoError(t, err)
	require.Equal(t, flow, *got)

	require.NoError(t, store.DeleteFlowDefinition(ctx, "shipping_flow"))
	_, err = store.GetFlowDefinition(ctx, "shipping_flow")
	require.True(t, persistence.IsNotFound(err))
}

func testTemplates(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	require.NoError(t, store.SaveTemplate(ctx, model.TemplateDefinition{Id: "z", Category: "defective", Body: "z", Active: true, SortOrder: 1}))
	require.NoError(t, store.SaveTemplate(ctx, model.TemplateDefinition{Id: "y", Category: "defective", Body: "y", Active: true, SortOrder: 0}))
	require.NoError(t, store.SaveTemplate(ctx, model.TemplateDefinition{Id: "x", Category: "shipping", Body: "x", Active: true}))

	list, err := store.ListTemplatesByCategory(ctx, "defective")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "y", list[0].Id)
	require.Equal(t, "z", list[1].Id)

	require.NoError(t, store.SaveTemplate(ctx, model.TemplateDefinition{Id: "z", Category: "shipping", Body: "moved", Active: true}))
	list, err = store.ListTemplatesByCategory(ctx, "defective")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := store.GetTemplate(ctx, "z")
	require.NoError(t, err)
	require.Equal(t, "moved", got.Body)
}

func testProductSelection(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	require.NoError(t, store.SaveProductSelection(ctx, "t1", "p1"))
	thread, err := store.GetThread(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "p1", thread.SelectedProductId)

	require.NoError(t, store.SaveThread(ctx, model.Thread{Id: "t2", OrderId: "o1", UserId: "u1"}))
	require.NoError(t, store.SaveProductSelection(ctx, "t2", "p2"))
	thread, err = store.GetThread(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, model.Thread{Id: "t2", OrderId: "o1", UserId: "u1", SelectedProductId: "p2"}, *thread)
}

func testNotFound(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	_, err := store.GetSession(ctx, "missing")
	require.True(t, persistence.IsNotFound(err))
	_, err = store.GetActiveSession(ctx, "missing", "shipping")
	require.True(t, persistence.IsNotFound(err))
	_, err = store.GetTemplate(ctx, "missing")
	require.True(t, persistence.IsNotFound(err))
	_, err = store.GetThread(ctx, "missing")
	require.True(t, persistence.IsNotFound(err))
	err = store.SaveSession(ctx, newSession("missing", "t", "c", time.Now()), "n1")
	require.True(t, persistence.IsNotFound(err))
}

func testColonIds(t *testing.T, store persistence.Storage) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.CreateSession(ctx, newSession("s1", "a:b", "c", now)))
	require.NoError(t, store.CreateSession(ctx, newSession("s2", "a", "b:c", now.Add(time.Second))))

	first, err := store.GetActiveSession(ctx, "a:b", "c")
	require.NoError(t, err)
	require.Equal(t, "s1", first.Id)
	second, err := store.GetActiveSession(ctx, "a", "b:c")
	require.NoError(t, err)
	require.Equal(t, "s2", second.Id)

	require.NoError(t, store.AppendAttachment(ctx, "x:y", "z", model.Attachment{Id: "a1", FileName: "one.png"}))
	atts, err := store.ListAttachments(ctx, "x", "y:z")
	require.NoError(t, err)
	require.Empty(t, atts)
	atts, err = store.ListAttachments(ctx, "x:y", "z")
	require.NoError(t, err)
	require.Len(t, atts, 1)
}
