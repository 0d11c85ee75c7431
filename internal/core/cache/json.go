package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const tourPrefix = "tour:"

func TourKey(id string) string { return tourPrefix + id }

// GetOrLoadJSON 缓存里存 JSON；读出来解不开说明是旧结构，删掉重新回源。
// load 的错误原样返回，不写负缓存。
func GetOrLoadJSON[T any](c *Cache, ctx context.Context, key string, ttl time.Duration,
	load func(context.Context) (*T, error)) (*T, error) {
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}

	raw, err := c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	v, err := decodeJSON[T](raw)
	if err == nil {
		return v, nil
	}
	if !c.Enabled() {
		return nil, err
	}
	_ = c.Del(ctx, key)
	if raw, err = c.GetOrLoad(ctx, key, ttl, encode); err != nil {
		return nil, err
	}
	return decodeJSON[T](raw)
}

func decodeJSON[T any](raw []byte) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("cache: decode %T: %w", v, err)
	}
	return v, nil
}
