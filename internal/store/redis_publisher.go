package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/redis"
)

// RedisPublisher mirrors every persisted record into Redis so the agent can
// read it without filesystem access.
type RedisPublisher struct {
	cache *redis.Cache
	ttl   time.Duration
}

// publishedRecord is what lands in Redis
type publishedRecord struct {
	RunID       string                      `json:"run_id"`
	PublishedAt time.Time                   `json:"published_at"`
	Record      *contracts.NormalizedRecord `json:"record"`
}

// NewRedisPublisher creates a publisher; ttl 0 keeps records forever
func NewRedisPublisher(cache *redis.Cache, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{cache: cache, ttl: ttl}
}

// Name implements contracts.RecordSink
func (p *RedisPublisher) Name() string {
	return "redis"
}

// Publish implements contracts.RecordSink
func (p *RedisPublisher) Publish(ctx context.Context, runID string, record *contracts.NormalizedRecord) error {
	payload := publishedRecord{
		RunID:       runID,
		PublishedAt: time.Now().UTC(),
		Record:      record,
	}

	if err := p.cache.Set(ctx, redis.RecordKey(record.CompID.String()), payload, p.ttl); err != nil {
		return fmt.Errorf("publish comp %s: %w", record.CompID.String(), err)
	}
	return nil
}

// Latest returns the last published record for compID
func (p *RedisPublisher) Latest(ctx context.Context, compID string) (*contracts.NormalizedRecord, bool, error) {
	var payload publishedRecord
	found, err := p.cache.Get(ctx, redis.RecordKey(compID), &payload)
	if err != nil || !found {
		return nil, false, err
	}
	return payload.Record, true, nil
}
