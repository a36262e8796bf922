package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Task is a unit of work executed by a SerialQueue.
type Task func(ctx context.Context) (any, error)

// SerialQueue guarantees that, for a given key, a submitted task starts only
// after every previously submitted task for that key has finished. Tasks for
// different keys run independently. A failing task never blocks the tasks
// queued behind it.
type SerialQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func NewSerialQueue() *SerialQueue {
	return &SerialQueue{
		tails: make(map[string]chan struct{}),
	}
}

// Submit enqueues task under key and blocks until it has run, returning its
// result. Submission order per key is FIFO: the position in the chain is
// claimed before Submit blocks, so concurrent callers observe the order in
// which their Submit calls were accepted.
func (q *SerialQueue) Submit(ctx context.Context, key string, task Task) (result any, err error) {
	q.mu.Lock()
	predecessor := q.tails[key]
	turn := make(chan struct{})
	q.tails[key] = turn
	q.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("queued task panicked", slog.String("key", key), slog.Any("panic", r))
			err = fmt.Errorf("task for %q panicked: %v", key, r)
		}
		close(turn)
		q.mu.Lock()
		if q.tails[key] == turn {
			delete(q.tails, key)
		}
		q.mu.Unlock()
	}()

	if predecessor != nil {
		<-predecessor
	}

	return task(ctx)
}
