package surfacefill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/sim"
)

type fakeSemaphore struct{ value uint32 }

func (s *fakeSemaphore) Address() uint64 { return 0x1000 }
func (s *fakeSemaphore) Value() uint32   { return s.value }
func (s *fakeSemaphore) Free() error     { return nil }

func TestTrackerWraparound(t *testing.T) {
	sem := &fakeSemaphore{}
	tr := &tracker{
		sems:   []hal.Semaphore{sem},
		want:   []uint32{2},
		active: []bool{true},
	}

	tests := []struct {
		value uint32
		done  bool
	}{
		{0xFFFFFFFE, false},
		{0xFFFFFFFF, false},
		{0, false},
		{1, false},
		{2, true},
		{3, true},
	}
	for _, tt := range tests {
		sem.value = tt.value
		if got := tr.done(0); got != tt.done {
			t.Errorf("done() with payload %#x, want 2 = %v; want %v", tt.value, got, tt.done)
		}
	}
}

func TestTrackerEmit(t *testing.T) {
	d := newDevice(t, sim.Config{Subdevices: 2})
	ch, err := d.AllocChannel()
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Free()

	tr := newTracker(d)
	if err := tr.ensure(ch); err != nil {
		t.Fatal(err)
	}
	defer tr.free()

	if tr.busy() {
		t.Fatal("fresh tracker is busy")
	}
	var addrs []uint64
	tr.emit(ch, []int{0, 1}, func(addr uint64, payload uint32) {
		if payload != 1 {
			t.Errorf("payload = %d, want 1", payload)
		}
		addrs = append(addrs, addr)
	})
	if len(addrs) != 2 || addrs[0] == addrs[1] {
		t.Errorf("release addresses = %#x, want one per instance", addrs)
	}
	if !tr.busy() {
		t.Error("tracker not busy after emit")
	}

	// Nothing releases the semaphores: the wait must time out.
	err = tr.wait(context.Background(), 5*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("wait() = %v, want ErrTimeout", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tr.wait(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("wait() with canceled context = %v, want context.Canceled", err)
	}
}
