package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mediocregopher/radix/v4"
)

const redisKeyPrefix = "gateway:session:"

// Redis persists session records as Redis hashes, one per shard. Suited to
// deployments that already run Redis next to the gateway and want session
// state to survive a shard restart without a relational database.
type Redis struct {
	client radix.Client
}

// NewRedis connects a pooled Redis client to the given address.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client, err := (radix.PoolConfig{}).New(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func redisKey(shard int) string {
	return redisKeyPrefix + strconv.Itoa(shard)
}

// Load implements SessionStore.
func (s *Redis) Load(ctx context.Context, shard int) (Record, bool, error) {
	var fields map[string]string
	if err := s.client.Do(ctx, radix.Cmd(&fields, "HGETALL", redisKey(shard))); err != nil {
		return Record{}, false, err
	}
	if len(fields) == 0 {
		return Record{}, false, nil
	}

	seq, err := strconv.ParseUint(fields["sequence"], 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("store: corrupt sequence for shard %d: %w", shard, err)
	}
	return Record{
		SessionID: fields["session_id"],
		Sequence:  seq,
		ResumeURL: fields["resume_url"],
	}, true, nil
}

// Save implements SessionStore.
func (s *Redis) Save(ctx context.Context, shard int, rec Record) error {
	return s.client.Do(ctx, radix.Cmd(nil, "HSET", redisKey(shard),
		"session_id", rec.SessionID,
		"sequence", strconv.FormatUint(rec.Sequence, 10),
		"resume_url", rec.ResumeURL,
	))
}

// Delete implements SessionStore.
func (s *Redis) Delete(ctx context.Context, shard int) error {
	return s.client.Do(ctx, radix.Cmd(nil, "DEL", redisKey(shard)))
}

// Close releases the underlying connection pool.
func (s *Redis) Close() error {
	return s.client.Close()
}
