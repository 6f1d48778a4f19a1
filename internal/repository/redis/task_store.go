// Package redis stores parse task snapshots in Redis so any instance can answer status
// polls. Task execution still stays in the process that created the task.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agroprice/internal/domain"
	"agroprice/internal/port"
)

type taskStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTaskStore creates a Redis-backed TaskStore. Each task is a JSON value under
// prefix+taskID that expires after ttl; a sorted set under prefix+"index" orders tasks
// by creation time for List.
func NewTaskStore(client *redis.Client, prefix string, ttl time.Duration) port.TaskStore {
	return &taskStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *taskStore) key(taskID string) string {
	return s.prefix + taskID
}

func (s *taskStore) indexKey() string {
	return s.prefix + "index"
}

func (s *taskStore) Get(ctx context.Context, taskID string) (*domain.ParseTask, error) {
	raw, err := s.client.Get(ctx, s.key(taskID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("redisTaskStore.Get: %w", err)
	}
	var task domain.ParseTask
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("redisTaskStore.Get decode: %w", err)
	}
	return &task, nil
}

func (s *taskStore) Set(ctx context.Context, task *domain.ParseTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("redisTaskStore.Set encode: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(task.ID), raw, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(task.CreatedAt.UnixNano()), Member: task.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisTaskStore.Set: %w", err)
	}
	return nil
}

// List returns every unexpired task, newest first. Index entries whose task has expired
// are pruned.
func (s *taskStore) List(ctx context.Context) ([]domain.ParseTask, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisTaskStore.List index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.ParseTask{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redisTaskStore.List: %w", err)
	}

	tasks := make([]domain.ParseTask, 0, len(values))
	var expired []interface{}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var task domain.ParseTask
		if err := json.Unmarshal([]byte(str), &task); err != nil {
			return nil, fmt.Errorf("redisTaskStore.List decode %s: %w", ids[i], err)
		}
		tasks = append(tasks, task)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("redisTaskStore.List prune: %w", err)
		}
	}
	return tasks, nil
}
