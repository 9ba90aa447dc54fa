package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// every write publishes the new state here so other processes can follow
	redisChangesChannel = "afewwords:persist:changes"
)

// implements Persister and Watcher using Redis
type RedisPersister struct {
	client *redis.Client
	key    string
}

// creates a new Redis-backed persister
func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client, key: StorageKey}
}

// creates a new Redis-backed persister from a URL
func NewRedisPersisterFromURL(redisURL string) (*RedisPersister, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // already failing
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisPersister(client), nil
}

// returns the stored state
func (p *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return data, nil
}

// stores the state and publishes it
func (p *RedisPersister) Save(ctx context.Context, data []byte) error {
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.key, data, 0)
	pipe.Publish(ctx, redisChangesChannel, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save failed: %w", err)
	}

	return nil
}

// removes the state and publishes an empty payload
func (p *RedisPersister) Delete(ctx context.Context) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.key)
	pipe.Publish(ctx, redisChangesChannel, "")

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

// follows published changes until ctx is done
func (p *RedisPersister) Watch(ctx context.Context, onChange func(data []byte)) error {
	sub := p.client.Subscribe(ctx, redisChangesChannel)
	defer sub.Close() //nolint:errcheck // best-effort cleanup

	// wait for the subscription to be confirmed before reporting anything
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("redis subscribe failed: %w", err)
	}

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			if msg.Payload == "" {
				onChange(nil)
				continue
			}

			onChange([]byte(msg.Payload))
		}
	}
}

// closes the Redis connection
func (p *RedisPersister) Close() error {
	return p.client.Close()
}
