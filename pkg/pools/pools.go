// Package pools recycles the short-lived byte buffers built for every
// checkpoint entry.
//
//   - BytePool: size-class based byte slice pooling
//   - BufferBuilder: frame construction on a pooled buffer
package pools
