// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"sync"

	"github.com/gogpu/gputypes"
)

type clearSlot struct {
	raw    [4]uint32
	format gputypes.TextureFormat
	used   bool
}

// clearTable is a fixed-size table of clear colors. Slots are never freed:
// tags written by fast clears keep referring to them.
type clearTable struct {
	mu    sync.Mutex
	slots []clearSlot
}

func newClearTable(n int) *clearTable {
	return &clearTable{slots: make([]clearSlot, n)}
}

// Acquire returns a slot holding raw for format, reusing an equal one.
func (t *clearTable) Acquire(raw [4]uint32, format gputypes.TextureFormat) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	free := -1
	for i, s := range t.slots {
		if s.used && s.raw == raw && s.format == format {
			return uint32(i), true
		}
		if !s.used && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return 0, false
	}
	t.slots[free] = clearSlot{raw: raw, format: format, used: true}
	return uint32(free), true
}

func (t *clearTable) lookup(idx uint32) ([4]uint32, gputypes.TextureFormat, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(idx) >= len(t.slots) || !t.slots[idx].used {
		return [4]uint32{}, gputypes.TextureFormatUndefined, false
	}
	s := t.slots[idx]
	return s.raw, s.format, true
}
