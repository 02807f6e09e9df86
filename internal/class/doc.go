// Package class encodes and decodes the method stream submitted through a
// channel: pushbuffer headers and the method addresses and bitfields of the
// copy-engine and raster classes.
package class
