package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

const SESSION_KEY string = "SESSION"
const ACTIVE_KEY string = "ACTIVE"
const THREAD_SESSIONS_KEY string = "THREAD_SESSIONS"
const ATTACHMENT_KEY string = "ATTACHMENT"
const CONTINUATION_KEY string = "CONTINUATION"

var _ persistence.SessionStore = new(redisStorage)
var _ persistence.DefinitionStore = new(redisStorage)
var _ persistence.ThreadStore = new(redisStorage)

type redisStorage struct {
	*baseDao
	sessions      recordCodec[model.FlowSession]
	attachments   recordCodec[model.Attachment]
	continuations recordCodec[model.Continuation]
	flows         recordCodec[model.FlowDefinition]
	templates     recordCodec[model.TemplateDefinition]
	threads       recordCodec[model.Thread]
}

func NewRedisStorage(conf Config) *redisStorage {
	return newRedisStorage(newBaseDao(conf))
}

func newRedisStorage(base *baseDao) *redisStorage {
	return &redisStorage{
		baseDao:       base,
		sessions:      newRecordCodec[model.FlowSession](persistence.KIND_SESSION),
		attachments:   newRecordCodec[model.Attachment]("attachment"),
		continuations: newRecordCodec[model.Continuation]("continuation"),
		flows:         newRecordCodec[model.FlowDefinition](persistence.KIND_FLOW),
		templates:     newRecordCodec[model.TemplateDefinition](persistence.KIND_TEMPLATE),
		threads:       newRecordCodec[model.Thread](persistence.KIND_THREAD),
	}
}

func (r *redisStorage) sessionKey(sessionId string) string {
	return r.getNamespaceKey(SESSION_KEY, sessionId)
}

func (r *redisStorage) activeKey(threadId string, category string) string {
	return r.getNamespaceKey(ACTIVE_KEY, threadId, category)
}

func (r *redisStorage) CreateSession(ctx context.Context, session *model.FlowSession) error {
	data, err := r.sessions.Encode(*session)
	if err != nil {
		return err
	}
	if session.IsActive {
		activeKey := r.activeKey(session.ThreadId, session.Category)
		ok, err := r.redisClient.SetNX(ctx, activeKey, session.Id, 0).Result()
		if err != nil {
			return persistence.StorageLayerError{Message: err.Error()}
		}
		if !ok {
			existing, err := r.redisClient.Get(ctx, activeKey).Result()
			if err != nil && !errors.Is(err, rd.Nil) {
				return persistence.StorageLayerError{Message: err.Error()}
			}
			return persistence.ActiveSessionExistsError{ThreadId: session.ThreadId, Category: session.Category, ActiveSessionId: existing}
		}
	}
	_, err = r.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.Id), data, 0)
		pipe.RPush(ctx, r.getNamespaceKey(THREAD_SESSIONS_KEY, session.ThreadId), session.Id)
		return nil
	})
	if err != nil {
		logger.Error("error in saving session", zap.String("sessionId", session.Id), zap.Error(err))
		if session.IsActive {
			r.redisClient.Del(ctx, r.activeKey(session.ThreadId, session.Category))
		}
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) GetSession(ctx context.Context, sessionId string) (*model.FlowSession, error) {
	val, err := r.redisClient.Get(ctx, r.sessionKey(sessionId)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: sessionId}
		}
		logger.Error("error in getting session", zap.String("sessionId", sessionId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.sessions.Decode(val)
}

func (r *redisStorage) GetActiveSession(ctx context.Context, threadId string, category string) (*model.FlowSession, error) {
	sessionId, err := r.redisClient.Get(ctx, r.activeKey(threadId, category)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: threadId + ":" + category}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.GetSession(ctx, sessionId)
}

func (r *redisStorage) SaveSession(ctx context.Context, session *model.FlowSession, expectedNodeId string) error {
	key := r.sessionKey(session.Id)
	activeKey := r.activeKey(session.ThreadId, session.Category)
	data, err := r.sessions.Encode(*session)
	if err != nil {
		return err
	}
	err = r.redisClient.Watch(ctx, func(tx *rd.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, rd.Nil) {
				return persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: session.Id}
			}
			return persistence.StorageLayerError{Message: err.Error()}
		}
		stored, err := r.sessions.Decode(val)
		if err != nil {
			return err
		}
		if stored.CurrentNodeId != expectedNodeId {
			return persistence.StaleSessionError{SessionId: session.Id, ExpectedNodeId: expectedNodeId, ActualNodeId: stored.CurrentNodeId}
		}
		activeId, err := tx.Get(ctx, activeKey).Result()
		if err != nil && !errors.Is(err, rd.Nil) {
			return persistence.StorageLayerError{Message: err.Error()}
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if !session.IsActive && activeId == session.Id {
				pipe.Del(ctx, activeKey)
			}
			return nil
		})
		return err
	}, key, activeKey)
	if errors.Is(err, rd.TxFailedErr) {
		return persistence.StaleSessionError{SessionId: session.Id, ExpectedNodeId: expectedNodeId}
	}
	return err
}

func (r *redisStorage) ListThreadSessions(ctx context.Context, threadId string) ([]*model.FlowSession, error) {
	ids, err := r.redisClient.LRange(ctx, r.getNamespaceKey(THREAD_SESSIONS_KEY, threadId), 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}
	values, err := r.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	res, err := r.sessions.DecodeFetched(values)
	if err != nil {
		return nil, err
	}
	persistence.SortSessions(res)
	return res, nil
}

func (r *redisStorage) AppendAttachment(ctx context.Context, sessionId string, nodeId string, attachment model.Attachment) error {
	data, err := r.attachments.Encode(attachment)
	if err != nil {
		return err
	}
	if err := r.redisClient.RPush(ctx, r.getNamespaceKey(ATTACHMENT_KEY, sessionId, nodeId), data).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) ListAttachments(ctx context.Context, sessionId string, nodeId string) ([]model.Attachment, error) {
	values, err := r.redisClient.LRange(ctx, r.getNamespaceKey(ATTACHMENT_KEY, sessionId, nodeId), 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.attachments.DecodeAll(values)
}

func (r *redisStorage) ClearAttachments(ctx context.Context, sessionId string, nodeId string) error {
	if err := r.redisClient.Del(ctx, r.getNamespaceKey(ATTACHMENT_KEY, sessionId, nodeId)).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) RecordContinuation(ctx context.Context, continuation model.Continuation) error {
	data, err := r.continuations.Encode(continuation)
	if err != nil {
		return err
	}
	if err := r.redisClient.RPush(ctx, r.getNamespaceKey(CONTINUATION_KEY, continuation.FromSessionId), data).Err(); err != nil {
		logger.Error("error in recording continuation", zap.String("from", continuation.FromSessionId), zap.String("to", continuation.ToSessionId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) ListContinuations(ctx context.Context, fromSessionId string) ([]model.Continuation, error) {
	values, err := r.redisClient.LRange(ctx, r.getNamespaceKey(CONTINUATION_KEY, fromSessionId), 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.continuations.DecodeAll(values)
}
