package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeRenderCertificate   JobType = "render_certificate"
	JobTypeRenderPaymentNotice JobType = "render_payment_notice"
	JobTypeRenderDocument      JobType = "render_document"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job, persisted so queue state survives a
// restart and failed renders stay visible for reconciliation.
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type" gorm:"type:varchar(50);index"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status" gorm:"type:varchar(20);index"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) error

// Enqueuer is the narrow interface services use to hand off work.
type Enqueuer interface {
	EnqueueJob(jobType JobType, payload interface{}) (uuid.UUID, error)
}

// Queue is a DB-backed job queue with a Redis transport.
type Queue struct {
	db       *gorm.DB
	redis    RedisTransport
	handlers map[JobType]JobHandler
}

// RedisTransport pushes and pops job IDs. Separated from the queue so
// tests can run against an in-memory transport.
type RedisTransport interface {
	Push(ctx context.Context, jobID uuid.UUID) error
	Pop(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error)
	PushDelayed(ctx context.Context, jobID uuid.UUID, runAt time.Time) error
	MoveReady(ctx context.Context) error
}

// NewQueue creates a new queue
func NewQueue(db *gorm.DB, transport RedisTransport) *Queue {
	return &Queue{
		db:       db,
		redis:    transport,
		handlers: make(map[JobType]JobHandler),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob persists a job row and pushes its ID onto the transport.
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (uuid.UUID, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
	}

	if err := q.db.Create(&job).Error; err != nil {
		return uuid.Nil, err
	}

	if err := q.redis.Push(context.Background(), job.ID); err != nil {
		// The row is already durable; the reconciliation sweep will
		// pick up pending jobs the transport lost.
		return job.ID, fmt.Errorf("job %s persisted but not pushed: %w", job.ID, err)
	}

	return job.ID, nil
}

// GetJob loads a job row by ID.
func (q *Queue) GetJob(id uuid.UUID) (*Job, error) {
	var job Job
	if err := q.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// PendingJobs lists jobs still awaiting a successful run.
func (q *Queue) PendingJobs(limit int) ([]Job, error) {
	var jobs []Job
	err := q.db.Where("status IN ?", []JobStatus{JobStatusPending, JobStatusFailed}).
		Order("created_at asc").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (q *Queue) markProcessing(job *Job) error {
	return q.db.Model(job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error
}

func (q *Queue) markCompleted(job *Job) error {
	return q.db.Model(job).Updates(map[string]interface{}{
		"status":     JobStatusCompleted,
		"error":      "",
		"updated_at": time.Now(),
	}).Error
}

// markFailed records the failure and schedules a retry with backoff
// while attempts remain.
func (q *Queue) markFailed(ctx context.Context, job *Job, jobErr error) error {
	job.RetryCount++

	updates := map[string]interface{}{
		"retry_count": job.RetryCount,
		"error":       jobErr.Error(),
		"updated_at":  time.Now(),
	}

	if job.RetryCount >= job.MaxRetries {
		updates["status"] = JobStatusFailed
		updates["next_retry"] = nil
		return q.db.Model(job).Updates(updates).Error
	}

	nextRetry := time.Now().Add(backoff(job.RetryCount))
	updates["status"] = JobStatusPending
	updates["next_retry"] = nextRetry
	if err := q.db.Model(job).Updates(updates).Error; err != nil {
		return err
	}
	return q.redis.PushDelayed(ctx, job.ID, nextRetry)
}

// backoff returns the delay before the given retry attempt.
func backoff(retry int) time.Duration {
	d := 5 * time.Second
	for i := 1; i < retry; i++ {
		d *= 2
		if d > time.Hour {
			return time.Hour
		}
	}
	return d
}
