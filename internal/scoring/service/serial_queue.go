package service

import (
	"sync"

	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/utils"
)

// serialQueue runs pushed jobs one at a time in push order. A worker
// goroutine is started when the queue becomes non-empty and exits once it
// drains.
type serialQueue struct {
	log     *logger.Logger
	mu      sync.Mutex
	pending []func()
	running bool
}

func newSerialQueue(log *logger.Logger) *serialQueue {
	return &serialQueue{log: log}
}

func (q *serialQueue) push(job func()) {
	q.mu.Lock()
	q.pending = append(q.pending, job)
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		utils.RunSafe(q.log, job)
	}
}
