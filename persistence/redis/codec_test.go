package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/stretchr/testify/require"
)

func TestRecordCodec(t *testing.T) {
	codec := newRecordCodec[model.Thread](persistence.KIND_THREAD)
	data, err := codec.Encode(model.Thread{Id: "t1", OrderId: "o1"})
	require.NoError(t, err)

	thread, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "o1", thread.OrderId)

	_, err = codec.Decode("{not json")
	var storageErr persistence.StorageLayerError
	require.True(t, errors.As(err, &storageErr))
	require.Contains(t, storageErr.Message, "decoding thread")

	fetched, err := codec.DecodeFetched([]any{data, nil, data})
	require.NoError(t, err)
	require.Len(t, fetched, 2)

	all, err := codec.DecodeAll([]string{data})
	require.NoError(t, err)
	require.Equal(t, []model.Thread{*thread}, all)
}

func TestCorruptRecordIsStorageError(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	require.NoError(t, store.redisClient.HSet(ctx, store.getNamespaceKey(THREAD_KEY), "t1", "{broken").Err())

	_, err := store.GetThread(ctx, "t1")
	var storageErr persistence.StorageLayerError
	require.True(t, errors.As(err, &storageErr))
}
