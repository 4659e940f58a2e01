package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("broadcast: redis unavailable")

// RedisTransport is a [Transport] over Redis pub/sub. The last-state record
// lives under stateKey; notifications travel on channel.
type RedisTransport struct {
	client   redis.UniversalClient
	channel  string
	stateKey string
}

// NewRedisTransport creates a Redis transport publishing on channel and
// persisting the last-state record under stateKey.
func NewRedisTransport(client redis.UniversalClient, channel, stateKey string) *RedisTransport {
	return &RedisTransport{
		client:   client,
		channel:  channel,
		stateKey: stateKey,
	}
}

func (t *RedisTransport) Publish(ctx context.Context, payload []byte) error {
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, t.stateKey, payload, 0)
		pipe.Publish(ctx, t.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (t *RedisTransport) Last(ctx context.Context) ([]byte, error) {
	data, err := t.client.Get(ctx, t.stateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

func (t *RedisTransport) ClearLast(ctx context.Context) error {
	if err := t.client.Del(ctx, t.stateKey).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (t *RedisTransport) Subscribe(ctx context.Context, handler func([]byte)) (func(), error) {
	pubsub := t.client.Subscribe(ctx, t.channel)

	// Force the SUBSCRIBE round-trip so a failed connection surfaces here
	// instead of silently dropping every future message.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			handler([]byte(msg.Payload))
		}
	}()

	return func() {
		_ = pubsub.Close()
		<-done
	}, nil
}
