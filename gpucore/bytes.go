// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32Bytes packs values as little-endian IEEE-754 words.
func Float32Bytes(values []float32) []byte {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

// Int32Bytes packs values as little-endian two's complement words.
func Int32Bytes(values []int32) []byte {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	return data
}

// Uint32Bytes packs values as little-endian words.
func Uint32Bytes(values []uint32) []byte {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return data
}

// BytesFloat32 unpacks little-endian IEEE-754 words.
// The length of data must be a multiple of 4.
func BytesFloat32(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("gpucore: %d bytes is not a whole number of float32 words", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// BytesUint32 unpacks little-endian words.
// The length of data must be a multiple of 4.
func BytesUint32(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("gpucore: %d bytes is not a whole number of uint32 words", len(data))
	}
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out, nil
}

// ReadFloat32 reads n float32 values from the start of a buffer.
func ReadFloat32(a Adapter, id BufferID, n int) ([]float32, error) {
	data, err := a.ReadBuffer(id, 0, uint64(n)*4)
	if err != nil {
		return nil, err
	}
	return BytesFloat32(data)
}

// WriteFloat32 writes values to the start of a buffer.
func WriteFloat32(a Adapter, id BufferID, values []float32) error {
	return a.WriteBuffer(id, 0, Float32Bytes(values))
}
