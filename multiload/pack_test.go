package multiload

import (
	"encoding/binary"
	"math"
)

// Test helpers for reading the packed mirror.

func f32At(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func i32At(data []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(data[off:]))
}
