package boltdb

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

func putJSON(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := b.Put([]byte(key), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func getJSON[T any](b *bbolt.Bucket, key string) (*T, bool, error) {
	if b == nil {
		return nil, false, nil
	}
	data := b.Get([]byte(key))
	if data == nil {
		return nil, false, nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return v, true, nil
}

func listJSON[T any](b *bbolt.Bucket) ([]*T, error) {
	var out []*T
	if b == nil {
		return out, nil
	}
	err := b.ForEach(func(k, data []byte) error {
		v := new(T)
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", k, err)
		}
		out = append(out, v)
		return nil
	})
	return out, err
}
