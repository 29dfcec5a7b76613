package jobs

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// StaleSweeper declines open booking requests whose requested date has passed
type StaleSweeper interface {
	DeclineStaleRequests(ctx context.Context) (int, error)
}

// StaleRequestJob periodically declines pending and waitlisted requests that
// nobody confirmed before their day came
type StaleRequestJob struct {
	sweeper  StaleSweeper
	interval time.Duration

	stopChan chan struct{}
	done     chan struct{}
	started  atomic.Bool
	once     sync.Once
}

// NewStaleRequestJob creates a new stale request job
func NewStaleRequestJob(sweeper StaleSweeper, interval time.Duration) *StaleRequestJob {
	return &StaleRequestJob{
		sweeper:  sweeper,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop. The first sweep runs immediately.
func (j *StaleRequestJob) Start() {
	if !j.started.CompareAndSwap(false, true) {
		return
	}
	go j.run()
	log.Printf("🚀 Stale request job started (every %s)", j.interval)
}

// Stop stops the job and waits for an in-flight sweep to finish. A job that
// was never started stops immediately and can no longer be started.
func (j *StaleRequestJob) Stop() {
	j.once.Do(func() {
		close(j.stopChan)
		if !j.started.CompareAndSwap(false, true) {
			<-j.done
		}
		log.Println("🛑 Stale request job stopped")
	})
}

func (j *StaleRequestJob) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()
	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			return
		}
	}
}

// sweep runs a single pass bounded by the job interval
func (j *StaleRequestJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()
	go func() {
		select {
		case <-j.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	declined, err := j.sweeper.DeclineStaleRequests(ctx)
	if err != nil {
		log.Printf("❌ Error declining stale requests: %v", err)
	}
	if declined > 0 {
		log.Printf("⏰ Declined %d stale booking requests", declined)
	}
}
