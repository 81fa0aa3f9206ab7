package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
)

const THREAD_KEY string = "THREAD"

func (r *redisStorage) GetThread(ctx context.Context, threadId string) (*model.Thread, error) {
	val, err := r.redisClient.HGet(ctx, r.getNamespaceKey(THREAD_KEY), threadId).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_THREAD, Id: threadId}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.threads.Decode(val)
}

func (r *redisStorage) SaveThread(ctx context.Context, thread model.Thread) error {
	data, err := r.threads.Encode(thread)
	if err != nil {
		return err
	}
	if err := r.redisClient.HSet(ctx, r.getNamespaceKey(THREAD_KEY), []string{thread.Id, data}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) SaveProductSelection(ctx context.Context, threadId string, productId string) error {
	thread, err := r.GetThread(ctx, threadId)
	if err != nil {
		if !persistence.IsNotFound(err) {
			return err
		}
		thread = &model.Thread{Id: threadId}
	}
	thread.SelectedProductId = productId
	return r.SaveThread(ctx, *thread)
}
