package reference

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicekit/internal/config"
)

// Sequence hands out strictly increasing positive numbers for {SEQ} tokens.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

type incrementer interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisSequence is a shared counter backed by redis INCR.
type RedisSequence struct {
	client incrementer
	key    string
}

func NewRedisSequence(client incrementer, key string) *RedisSequence {
	return &RedisSequence{client: client, key: key}
}

func (s *RedisSequence) Next(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, s.key).Result()
}

// NewSequence returns nil when no sequence backend is configured.
func NewSequence(appCfg config.Config, holder *config.InvoiceConfigHolder) (Sequence, error) {
	refCfg := holder.Get().Reference
	switch refCfg.Sequence {
	case config.SequenceNone:
		return nil, nil
	case config.SequenceRedis:
		addr := strings.TrimSpace(appCfg.RedisAddr)
		if addr == "" {
			return nil, errors.New("reference sequence redis addr is required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(appCfg.RedisPassword),
			DB:       appCfg.RedisDB,
		})
		return NewRedisSequence(client, refCfg.SequenceKey), nil
	default:
		return nil, errors.New("unsupported reference sequence")
	}
}
