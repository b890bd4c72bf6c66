package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/ports"
)

// DefaultPrefix namespaces content keys.
const DefaultPrefix = "vaudio:content:"

// Loader implements ports.ContentLoader and ports.ContentLister on Redis.
// Documents are stored as plain string keys; a sorted set indexes them for listing.
type Loader struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Loader)

// WithTTL sets the expiration for stored documents.
func WithTTL(ttl time.Duration) Option {
	return func(l *Loader) {
		l.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// New creates a Redis loader with its own client.
func New(address, password string, db int, opts ...Option) *Loader {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis loader from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Loader {
	l := &Loader{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) key(p string) string {
	return l.prefix + cleanPath(p)
}

func (l *Loader) indexKey() string {
	return l.prefix + "index"
}

// Put stores a document under a content path.
func (l *Loader) Put(ctx context.Context, p string, data []byte) error {
	p = cleanPath(p)
	if p == "" {
		return fmt.Errorf("content path cannot be empty")
	}

	score := float64(time.Now().Add(l.ttl).Unix())
	if l.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := l.client.Pipeline()
	pipe.Set(ctx, l.key(p), data, l.ttl)
	pipe.ZAdd(ctx, l.indexKey(), backend.Z{Score: score, Member: p})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store %s in redis: %w", p, err)
	}
	return nil
}

// Load retrieves a document.
func (l *Loader) Load(ctx context.Context, p string) ([]byte, error) {
	val, err := l.client.Get(ctx, l.key(p)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%s: %w", cleanPath(p), domain.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to get %s from redis: %w", p, err)
	}
	return val, nil
}

// Delete removes a document.
func (l *Loader) Delete(ctx context.Context, p string) error {
	p = cleanPath(p)
	pipe := l.client.Pipeline()
	pipe.Del(ctx, l.key(p))
	pipe.ZRem(ctx, l.indexKey(), p)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored content paths, pruning expired index entries first.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := l.client.ZRemRangeByScore(ctx, l.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired content: %w", err)
	}

	paths, err := l.client.ZRange(ctx, l.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Source is a loader that can enumerate its content.
type Source interface {
	ports.ContentLoader
	ports.ContentLister
}

// Seed copies every document of src into Redis and returns how many were written.
// Concurrent seeders sharing the prefix are serialized by a lock.
func (l *Loader) Seed(ctx context.Context, src Source) (int, error) {
	unlock, err := NewLocker(l.client, l.prefix).Lock(ctx, "seed", 30*time.Second)
	if err != nil {
		return 0, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	paths, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list seed content: %w", err)
	}
	for i, p := range paths {
		data, err := src.Load(ctx, p)
		if err != nil {
			return i, fmt.Errorf("failed to read seed content %s: %w", p, err)
		}
		if err := l.Put(ctx, p, data); err != nil {
			return i, err
		}
	}
	return len(paths), nil
}

// Ping checks connectivity.
func (l *Loader) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (l *Loader) Close() error {
	return l.client.Close()
}

func cleanPath(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "/")
}
