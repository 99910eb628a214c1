package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen caps the error stream when no length is configured.
const DefaultStreamMaxLen = 10000

// Streamer is the subset of go-redis used by ErrorStream.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRevRangeN(ctx context.Context, stream, start, stop string, count int64) *redis.XMessageSliceCmd
	XLen(ctx context.Context, stream string) *redis.IntCmd
}

// ErrorStream appends error entries to a capped Redis stream.
type ErrorStream struct {
	rdb    Streamer
	name   string
	maxLen int64
}

// NewErrorStream creates a stream writer over any go-redis client.
func NewErrorStream(rdb Streamer, name string, maxLen int64) *ErrorStream {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &ErrorStream{rdb: rdb, name: name, maxLen: maxLen}
}

// Stream returns the error stream backed by this client.
func (c *Client) Stream(name string, maxLen int64) *ErrorStream {
	return NewErrorStream(c.rdb, name, maxLen)
}

// Name returns the stream key.
func (s *ErrorStream) Name() string {
	return s.name
}

// Append adds one entry and returns its stream ID.
func (s *ErrorStream) Append(ctx context.Context, values map[string]any) (string, error) {
	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.name,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd failed: %w", err)
	}
	return id, nil
}

// Recent returns up to count entries, newest first.
func (s *ErrorStream) Recent(ctx context.Context, count int64) ([]redis.XMessage, error) {
	msgs, err := s.rdb.XRevRangeN(ctx, s.name, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange failed: %w", err)
	}
	return msgs, nil
}

// Len returns the number of entries in the stream.
func (s *ErrorStream) Len(ctx context.Context) (int64, error) {
	n, err := s.rdb.XLen(ctx, s.name).Result()
	if err != nil {
		return 0, fmt.Errorf("xlen failed: %w", err)
	}
	return n, nil
}
