package pipeline

// Buffer accumulates raw PCM bytes between inference windows.
// It is owned by a single pipeline goroutine and is not synchronized.
type Buffer struct {
	data []byte
}

// Append adds a chunk to the end of the buffer.
func (b *Buffer) Append(chunk []byte) {
	b.data = append(b.data, chunk...)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Take removes and returns the first n bytes. If fewer than n bytes are
// buffered, everything is returned.
func (b *Buffer) Take(n int) []byte {
	if n > len(b.data) {
		n = len(b.data)
	}
	out := make([]byte, n)
	copy(out, b.data[:n])

	rest := len(b.data) - n
	copy(b.data, b.data[n:])
	b.data = b.data[:rest]
	return out
}

// Remainder empties the buffer and returns whatever it held.
func (b *Buffer) Remainder() []byte {
	return b.Take(len(b.data))
}
