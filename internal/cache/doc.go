// Package cache provides a generic LRU cache with an eviction callback.
//
// The fill engines use it to keep surfaces mapped into their virtual address
// space across fills: the key is the surface handle, the value the mapped
// address, and the callback unmaps entries as they are evicted.
//
//	c := cache.NewLRU[uint64, uint64](64, func(h, va uint64) { _ = vas.Unmap(va) })
//	c.Add(handle, va)
//	va, ok := c.Get(handle)
//
// # Thread Safety
//
// LRU is safe for concurrent use and must not be copied after creation.
package cache
