package gpucore

import (
	"math"
	"testing"
)

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		n, size, want uint32
	}{
		{0, 64, 0},
		{1, 64, 1},
		{64, 64, 1},
		{65, 64, 2},
		{9, 256, 1},
		{128 * 128, 256, 64},
		{512 * 512, 256, 1024},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := WorkgroupCount(tt.n, tt.size); got != tt.want {
			t.Errorf("WorkgroupCount(%d, %d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestBufferUsageString(t *testing.T) {
	tests := []struct {
		usage BufferUsage
		want  string
	}{
		{0, "None"},
		{BufferUsageStorage, "Storage"},
		{UsageVector, "CopySrc|CopyDst|Storage"},
		{BufferUsageMapRead | 1<<10, "MapRead|0x400"},
	}
	for _, tt := range tests {
		if got := tt.usage.String(); got != tt.want {
			t.Errorf("BufferUsage(%d).String() = %q, want %q", uint32(tt.usage), got, tt.want)
		}
	}
	if !UsageVector.Contains(BufferUsageStorage | BufferUsageCopyDst) {
		t.Error("UsageVector should contain Storage|CopyDst")
	}
	if UsageParams.Contains(BufferUsageStorage) {
		t.Error("UsageParams should not contain Storage")
	}
}

func TestBindingsViewsShareMemory(t *testing.T) {
	b := NewBindings()
	words := make([]uint32, 4)
	b.Set(2, words)

	f := b.F32(2)
	f[1] = 1.5
	if words[1] != math.Float32bits(1.5) {
		t.Errorf("words[1] = %#x, want bits of 1.5", words[1])
	}

	i := b.I32(2)
	i[3] = -2
	if words[3] != 0xFFFFFFFE {
		t.Errorf("words[3] = %#x, want 0xFFFFFFFE", words[3])
	}
}

func TestBindingsUnboundPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("reading an unbound binding should panic")
		}
	}()
	b := NewBindings()
	b.Set(1, []uint32{0})
	_ = b.U32(0)
}

func TestBytesRejectsPartialWords(t *testing.T) {
	if _, err := BytesFloat32(make([]byte, 6)); err == nil {
		t.Error("BytesFloat32 should reject 6 bytes")
	}
	if _, err := BytesUint32(make([]byte, 3)); err == nil {
		t.Error("BytesUint32 should reject 3 bytes")
	}
}

func TestInt32BytesLittleEndian(t *testing.T) {
	got := Int32Bytes([]int32{-1, 256})
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x01, 0x00, 0x00}
	if string(got) != string(want) {
		t.Errorf("Int32Bytes = %v, want %v", got, want)
	}
}
