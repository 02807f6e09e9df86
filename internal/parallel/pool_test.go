package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPoolWorkers(t *testing.T) {
	tests := []struct {
		workers int
		want    int
	}{
		{4, 4},
		{1, 1},
		{0, 1},
		{-3, 1},
	}
	for _, tt := range tests {
		p := NewPool(tt.workers)
		if got := p.Workers(); got != tt.want {
			t.Errorf("NewPool(%d).Workers() = %d, want %d", tt.workers, got, tt.want)
		}
		p.Close()
	}
}

func TestRunExecutesAll(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	for _, n := range []int{0, 1, 2, 7, 100} {
		var mu sync.Mutex
		seen := make(map[int]int)
		tasks := make([]func(), n)
		for i := range tasks {
			tasks[i] = func() {
				mu.Lock()
				seen[i]++
				mu.Unlock()
			}
		}
		p.Run(tasks...)

		if len(seen) != n {
			t.Fatalf("n=%d: ran %d distinct tasks", n, len(seen))
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("n=%d: task %d ran %d times", n, i, c)
			}
		}
	}
}

func TestRunConcurrent(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	// Three tasks that wait for each other only finish if they run at once.
	var arrived sync.WaitGroup
	arrived.Add(3)
	task := func() {
		arrived.Done()
		arrived.Wait()
	}

	done := make(chan struct{})
	go func() {
		p.Run(task, task, task)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not execute tasks concurrently")
	}
}

func TestRunAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	var order []int
	p.Run(func() { order = append(order, 0) }, func() { order = append(order, 1) })
	if len(order) != 2 || order[0] != 0 || order[1] != 1 {
		t.Errorf("order = %v, want [0 1]", order)
	}
}

func TestRunFromManyGoroutines(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks := make([]func(), 10)
			for i := range tasks {
				tasks[i] = func() { total.Add(1) }
			}
			p.Run(tasks...)
		}()
	}
	wg.Wait()
	if got := total.Load(); got != 80 {
		t.Errorf("total = %d, want 80", got)
	}
}
