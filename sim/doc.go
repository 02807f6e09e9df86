// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sim is a software accelerator implementing the hal interfaces.
//
// A Device holds per-instance memory for every surface it allocates and
// executes the method streams of its channels on one goroutine per channel,
// after an optional latency. It understands the copy-engine and raster
// classes, compression tags with a clear-color table, semaphore releases and
// broadcast groups of several device instances. A method addressed to
// several instances runs on each of them concurrently.
//
// The device is meant for tests and tooling: memory is host memory, and
// results are read back with [Device.ReadBack].
//
//	dev := sim.New(sim.Config{Subdevices: 2})
//	defer dev.Close()
//	s, _ := surface.New(desc)
//	_ = dev.Alloc(s)
package sim
