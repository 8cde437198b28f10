package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	readyKey   = "douanenc:jobs:ready"
	delayedKey = "douanenc:jobs:delayed"
)

// RedisQueue is the Redis transport for job IDs: a list for ready jobs
// and a sorted set keyed by run-at for delayed retries.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a new Redis transport
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Push adds a job ID to the ready list
func (r *RedisQueue) Push(ctx context.Context, jobID uuid.UUID) error {
	if err := r.client.LPush(ctx, readyKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for a ready job ID. The second return value
// is false when no job was available.
func (r *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error) {
	result, err := r.client.BRPop(ctx, timeout, readyKey).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to pop job from queue: %w", err)
	}
	if len(result) < 2 {
		return uuid.Nil, false, fmt.Errorf("unexpected result format from BRPOP")
	}

	id, err := uuid.Parse(result[1])
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("malformed job id on queue: %w", err)
	}
	return id, true, nil
}

// PushDelayed schedules a job ID to become ready at runAt
func (r *RedisQueue) PushDelayed(ctx context.Context, jobID uuid.UUID, runAt time.Time) error {
	err := r.client.ZAdd(ctx, delayedKey, &redis.Z{
		Score:  float64(runAt.Unix()),
		Member: jobID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add job to delayed queue: %w", err)
	}
	return nil
}

// MoveReady promotes delayed jobs whose run-at has passed onto the
// ready list.
func (r *RedisQueue) MoveReady(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	members, err := r.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	for _, member := range members {
		if err := r.client.LPush(ctx, readyKey, member).Err(); err != nil {
			return err
		}
		if err := r.client.ZRem(ctx, delayedKey, member).Err(); err != nil {
			return err
		}
	}
	return nil
}
