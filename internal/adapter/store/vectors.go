package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector stores a vector as little-endian float32 bits.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if data == nil {
		return nil, fmt.Errorf("vector missing")
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector length %d is not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
