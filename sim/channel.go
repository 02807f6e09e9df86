// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"sync"
	"time"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/internal/class"
)

// segmentQueue is the number of flushed segments a channel buffers before
// Flush blocks.
const segmentQueue = 256

// channel accumulates methods and executes flushed segments in order on its
// own goroutine.
type channel struct {
	dev *Device

	mu      sync.Mutex
	pending []uint32
	freed   bool

	segs chan []uint32
	quit chan struct{}
	done chan struct{}

	// Executor state, owned by the run goroutine.
	mask    uint32
	classes [8]hal.ClassID
	regs    [8]map[uint32]uint32
}

// AllocChannel creates a channel and starts its executor.
func (d *Device) AllocChannel() (hal.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	ch := &channel{
		dev:  d,
		segs: make(chan []uint32, segmentQueue),
		quit: make(chan struct{}),
		done: make(chan struct{}),
		mask: hal.BroadcastMask(d.subdevices),
	}
	for i := range ch.regs {
		ch.regs[i] = make(map[uint32]uint32)
	}
	d.channels[ch] = struct{}{}
	go ch.run()
	return ch, nil
}

func (c *channel) SetObject(subch uint32, id hal.ClassID) {
	c.Write(subch, class.MethodSetObject, uint32(id))
}

func (c *channel) Write(subch, method uint32, data ...uint32) {
	if len(data) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, class.IncHeader(subch, method, len(data)))
	c.pending = append(c.pending, data...)
}

func (c *channel) SetSubdeviceMask(mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, class.SubdeviceMaskHeader(mask))
}

func (c *channel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.freed {
		return hal.ErrFreed
	}
	if len(c.pending) == 0 {
		return nil
	}
	seg := c.pending
	c.pending = nil
	c.segs <- seg
	return nil
}

func (c *channel) Free() error {
	return c.release(false)
}

func (c *channel) Abandon() error {
	return c.release(true)
}

// release closes the segment queue and waits for the executor to exit. With
// abandon set, segments that have not been admitted are dropped.
func (c *channel) release(abandon bool) error {
	c.mu.Lock()
	if c.freed {
		c.mu.Unlock()
		return nil
	}
	c.freed = true
	c.pending = nil
	if abandon {
		close(c.quit)
	}
	close(c.segs)
	c.mu.Unlock()

	<-c.done

	d := c.dev
	d.mu.Lock()
	delete(d.channels, c)
	d.mu.Unlock()
	return nil
}

// run executes flushed segments until the channel is released.
func (c *channel) run() {
	defer close(c.done)

	d := c.dev
	for seg := range c.segs {
		if !c.admit() {
			d.abandoned.Add(1)
			continue
		}
		d.mu.Lock()
		mask, ok := class.Decode(seg, c.mask, c.execute)
		c.mask = mask
		d.mu.Unlock()
		d.gate.RUnlock()

		if !ok {
			d.fault(ErrMalformedSegment)
		}
		d.segments.Add(1)
	}
}

// admit waits out the device latency and any pause. On success the caller
// holds d.gate for reading. It returns false once the channel is abandoned.
func (c *channel) admit() bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	d := c.dev
	if d.latency > 0 {
		t := time.NewTimer(d.latency)
		select {
		case <-t.C:
		case <-c.quit:
			t.Stop()
			return false
		}
	}
	return d.enter(c.quit)
}

// execute applies one method. Caller holds d.mu.
func (c *channel) execute(m class.Method) {
	subch := m.Subch & 7
	if m.Method == class.MethodSetObject {
		c.classes[subch] = hal.ClassID(m.Data)
		return
	}
	regs := c.regs[subch]
	regs[m.Method] = m.Data

	switch c.classes[subch] {
	case hal.ClassCopyEngine:
		if m.Method == class.CopyLaunchDma {
			c.dev.launchDma(m.Mask, regs, class.DecodeLaunchDma(m.Data))
		}
	case hal.ClassRaster:
		switch m.Method {
		case class.RasterClearSurface:
			c.dev.clearSurface(m.Mask, regs, class.DecodeClearSurface(m.Data))
		case class.RasterSetReportSemaphoreD:
			if m.Data == class.ReportSemaphoreRelease {
				addr := uint64(regs[class.RasterSetReportSemaphoreA])<<32 | uint64(regs[class.RasterSetReportSemaphoreB])
				c.dev.forEach(m.Mask, func(sub int) {
					c.dev.release(sub, addr, regs[class.RasterSetReportSemaphoreC])
				})
			}
		}
	}
}

// forEach calls fn for every device instance selected by mask. Instances
// run concurrently; fn must only touch state of its own instance.
func (d *Device) forEach(mask uint32, fn func(subdev int)) {
	var tasks []func()
	for i := 0; i < d.subdevices; i++ {
		if mask&(1<<uint(i)) != 0 {
			tasks = append(tasks, func() { fn(i) })
		}
	}
	if d.pool == nil {
		for _, t := range tasks {
			t()
		}
		return
	}
	d.pool.Run(tasks...)
}
