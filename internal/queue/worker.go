package queue

import (
	"context"
	"log"
	"sync"
	"time"
)

// Worker pulls job IDs off the transport and runs the registered
// handlers against the durable job rows.
type Worker struct {
	queue      *Queue
	numWorkers int
	wg         sync.WaitGroup
	quit       chan struct{}
}

// NewWorker creates a new worker pool for the queue
func NewWorker(queue *Queue, numWorkers int) *Worker {
	return &Worker{
		queue:      queue,
		numWorkers: numWorkers,
		quit:       make(chan struct{}),
	}
}

// Start starts the worker goroutines
func (w *Worker) Start() {
	log.Printf("Starting %d queue workers", w.numWorkers)
	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
}

// Stop signals the workers and waits for them to finish
func (w *Worker) Stop() {
	close(w.quit)
	w.wg.Wait()
	log.Printf("Queue workers stopped")
}

func (w *Worker) run(workerID int) {
	defer w.wg.Done()

	ctx := context.Background()
	for {
		select {
		case <-w.quit:
			return
		default:
		}

		if err := w.queue.redis.MoveReady(ctx); err != nil {
			log.Printf("worker %d: failed to promote delayed jobs: %v", workerID, err)
		}

		jobID, ok, err := w.queue.redis.Pop(ctx, time.Second)
		if err != nil {
			log.Printf("worker %d: dequeue error: %v", workerID, err)
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		job, err := w.queue.GetJob(jobID)
		if err != nil {
			log.Printf("worker %d: unknown job %s: %v", workerID, jobID, err)
			continue
		}
		if job.Status == JobStatusCompleted {
			continue
		}

		w.processJob(ctx, workerID, job)
	}
}

func (w *Worker) processJob(ctx context.Context, workerID int, job *Job) {
	handler, ok := w.queue.handlers[job.Type]
	if !ok {
		log.Printf("worker %d: no handler for job type %s", workerID, job.Type)
		return
	}

	if err := w.queue.markProcessing(job); err != nil {
		log.Printf("worker %d: failed to mark job %s processing: %v", workerID, job.ID, err)
		return
	}

	if err := handler(ctx, *job); err != nil {
		log.Printf("worker %d: job %s failed: %v", workerID, job.ID, err)
		if failErr := w.queue.markFailed(ctx, job, err); failErr != nil {
			log.Printf("worker %d: failed to record failure of job %s: %v", workerID, job.ID, failErr)
		}
		return
	}

	if err := w.queue.markCompleted(job); err != nil {
		log.Printf("worker %d: failed to mark job %s completed: %v", workerID, job.ID, err)
	}
}
