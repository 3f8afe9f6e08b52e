// Package queue emits fire-and-forget jobs onto a named Redis-backed work
// queue. This side only produces; workers in another process consume.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	identity "github.com/filevault/go-identity"
)

// Queue pushes jobs onto a Redis list shared with the consuming workers.
type Queue struct {
	client redis.UniversalClient
	name   string
}

var _ identity.JobEmitter = (*Queue)(nil)

// New binds a queue name to a shared Redis client.
func New(client redis.UniversalClient, name string) *Queue {
	return &Queue{
		client: client,
		name:   name,
	}
}

// Name returns the queue's name.
func (q *Queue) Name() string { return q.name }

// Key is the Redis list the jobs land on.
func (q *Queue) Key() string { return "queue:" + q.name }

// Job is the envelope wrapped around every payload.
type Job struct {
	ID        string          `json:"id"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Enqueue wraps the payload in a Job envelope and pushes it. The caller
// decides whether a failure matters; nothing here retries.
func (q *Queue) Enqueue(ctx context.Context, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "unserializable job payload")
	}

	job := Job{
		ID:        uuid.NewString(),
		Queue:     q.name,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode job envelope")
	}

	if err := q.client.LPush(ctx, q.Key(), data).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "queue push failed").
			WithTextCode(identity.TextCodeStoreUnreachable)
	}

	return nil
}
