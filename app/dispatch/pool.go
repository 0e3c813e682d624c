package dispatch

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
)

// Job is one unit of webhook processing. Jobs sharing a key land on the
// same worker, so rounds for one work item run in order.
type Job struct {
	Key string
	Run func(ctx context.Context)
}

// Pool is a fixed set of workers, each draining its own queue. Submit
// routes by key hash; Shutdown stops intake and drains what was accepted.
type Pool struct {
	queues []chan Job
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines with queueSize-deep queues each.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &Pool{queues: make([]chan Job, workers)}
	for i := range p.queues {
		p.queues[i] = make(chan Job, queueSize)
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(i int) {
	defer p.wg.Done()
	for job := range p.queues[i] {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("🚨 Worker %d panic on job %q: %v", i, job.Key, r)
				}
			}()
			job.Run(context.Background())
		}()
	}
}

func (p *Pool) queueFor(key string) chan Job {
	h := fnv.New32a()
	h.Write([]byte(key))
	return p.queues[int(h.Sum32())%len(p.queues)]
}

// Submit enqueues a job. It blocks if the target queue is full and fails
// only after Shutdown has begun.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("dispatch pool is shut down")
	}
	// Held across the send so Shutdown cannot close the queue mid-enqueue.
	p.queueFor(job.Key) <- job
	return nil
}

// Shutdown stops intake and waits until every queued job has finished or
// the context expires. Jobs already running are not interrupted.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, queue := range p.queues {
			close(queue)
		}
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch pool drain: %w", ctx.Err())
	}
}
