package surfacefill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/surfacefill/hal"
)

// Polling backoff bounds for Wait.
const (
	minPollInterval = 10 * time.Microsecond
	maxPollInterval = time.Millisecond
)

// releaseFunc emits the engine methods releasing payload to the semaphore
// at addr.
type releaseFunc func(addr uint64, payload uint32)

// tracker owns the completion semaphores of one filler: one per device
// instance, allocated on first use and reused until free.
type tracker struct {
	dev     hal.Device
	sems    []hal.Semaphore
	trigger uint32

	// want[i] is the payload instance i releases after its last submitted
	// work; active[i] marks instances with work not yet observed complete.
	want   []uint32
	active []bool
}

func newTracker(dev hal.Device) *tracker {
	n := dev.NumSubdevices()
	return &tracker{
		dev:    dev,
		want:   make([]uint32, n),
		active: make([]bool, n),
	}
}

// ensure allocates the semaphores on first use.
func (t *tracker) ensure(ch hal.Channel) error {
	if t.sems != nil {
		return nil
	}
	sems := make([]hal.Semaphore, t.dev.NumSubdevices())
	for i := range sems {
		s, err := t.dev.AllocSemaphore(ch, i)
		if err != nil {
			for _, prev := range sems[:i] {
				_ = prev.Free()
			}
			return fmt.Errorf("allocate semaphore on instance %d: %w", i, err)
		}
		sems[i] = s
	}
	t.sems = sems
	return nil
}

// emit records a new trigger value and writes one release per selected
// instance, each under a single-instance subdevice mask. The broadcast
// mask is restored afterwards.
func (t *tracker) emit(ch hal.Channel, subdevs []int, release releaseFunc) {
	t.trigger++
	for _, i := range subdevs {
		ch.SetSubdeviceMask(1 << uint(i))
		release(t.sems[i].Address(), t.trigger)
		t.want[i] = t.trigger
		t.active[i] = true
	}
	ch.SetSubdeviceMask(hal.BroadcastMask(t.dev.NumSubdevices()))
}

// busy reports whether any instance has outstanding work.
func (t *tracker) busy() bool {
	for _, a := range t.active {
		if a {
			return true
		}
	}
	return false
}

// done reports whether instance i reached its trigger. Payloads wrap, so
// the comparison is on the signed distance.
func (t *tracker) done(i int) bool {
	return int32(t.sems[i].Value()-t.want[i]) >= 0
}

// wait polls until every active instance completed, backing off
// exponentially, for at most timeout.
func (t *tracker) wait(ctx context.Context, timeout time.Duration) error {
	if !t.busy() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := minPollInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		pending := 0
		for i, a := range t.active {
			if !a {
				continue
			}
			if t.done(i) {
				t.active[i] = false
				continue
			}
			pending++
		}
		if pending == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d instance(s) pending at trigger %d: %w",
				ErrTimeout, pending, t.trigger, ctx.Err())
		case <-timer.C:
		}
		interval = min(interval*2, maxPollInterval)
		timer.Reset(interval)
	}
}

// free releases the semaphores and restarts the trigger sequence.
// Outstanding work is forgotten.
func (t *tracker) free() error {
	var errs []error
	for _, s := range t.sems {
		errs = append(errs, s.Free())
	}
	t.sems = nil
	t.trigger = 0
	for i := range t.active {
		t.active[i] = false
	}
	return errors.Join(errs...)
}
