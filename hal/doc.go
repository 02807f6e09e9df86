// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hal defines the accelerator abstractions a fill engine drives.
//
// A [Device] represents one logical accelerator that may span several
// device instances (subdevices) linked into a broadcast group. Work is
// submitted through a [Channel] as a stream of class methods; completion
// is observed through [Semaphore] memory the engine asks the accelerator
// to release. Surfaces are made visible to engines through a [VASpace] and
// to the CPU through a [Mapper].
//
// Package sim provides a software implementation of every interface here.
package hal
