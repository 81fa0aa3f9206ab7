package redis

import (
	"encoding/json"
	"fmt"

	"github.com/mohitkumar/resolveflow/persistence"
)

// recordCodec turns one record kind into the string values redis stores.
// Corrupt values come back as StorageLayerError naming the kind.
type recordCodec[T any] struct {
	kind string
}

func newRecordCodec[T any](kind string) recordCodec[T] {
	return recordCodec[T]{kind: kind}
}

func (c recordCodec[T]) Encode(value T) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", persistence.StorageLayerError{Message: fmt.Sprintf("encoding %s: %s", c.kind, err)}
	}
	return string(data), nil
}

func (c recordCodec[T]) Decode(value string) (*T, error) {
	var res T
	if err := json.Unmarshal([]byte(value), &res); err != nil {
		return nil, persistence.StorageLayerError{Message: fmt.Sprintf("decoding %s: %s", c.kind, err)}
	}
	return &res, nil
}

// DecodeAll decodes list entries in order.
func (c recordCodec[T]) DecodeAll(values []string) ([]T, error) {
	res := make([]T, 0, len(values))
	for _, v := range values {
		item, err := c.Decode(v)
		if err != nil {
			return nil, err
		}
		res = append(res, *item)
	}
	return res, nil
}

// DecodeFetched decodes the results of MGET or HMGET, dropping missing entries.
func (c recordCodec[T]) DecodeFetched(values []any) ([]*T, error) {
	var res []*T
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		item, err := c.Decode(str)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	return res, nil
}
