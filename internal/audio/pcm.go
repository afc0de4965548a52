package audio

import "encoding/binary"

// int16ToBytes encodes samples as little-endian signed 16-bit PCM in a fresh slice.
func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(s))
	}
	return out
}

// cloneBytes copies a driver-owned buffer before it is handed to the queue.
func cloneBytes(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
