// Package parallel runs independent engine work on a fixed set of goroutines.
package parallel

import (
	"sync"
	"sync/atomic"
)

// Pool executes batches of tasks on a fixed set of workers.
//
// Each worker has its own queue and steals from the others when its queue
// is empty, so a slow task does not hold back the rest of a batch.
//
// Pool is safe for concurrent use.
type Pool struct {
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool starts a pool with the given number of workers (at least 1).
func NewPool(workers int) *Pool {
	workers = max(workers, 1)
	depth := max(workers*4, 8)

	p := &Pool{
		queues: make([]chan func(), workers),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}

		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}

		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

// steal takes one task from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i, q := range p.queues {
		if i == id {
			continue
		}
		select {
		case fn := <-q:
			return fn
		default:
		}
	}
	return nil
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

// Run executes tasks and returns when all of them have finished. A single
// task runs on the calling goroutine. After Close, tasks run on the calling
// goroutine in order.
func (p *Pool) Run(tasks ...func()) {
	switch {
	case len(tasks) == 0:
		return
	case len(tasks) == 1 || !p.running.Load():
		for _, fn := range tasks {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, fn := range tasks {
		task := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%len(p.queues)] <- task:
		case <-p.done:
			task()
		}
	}
	wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return len(p.queues) }

// Close stops the workers after the queued tasks have run. It is safe to
// call more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
