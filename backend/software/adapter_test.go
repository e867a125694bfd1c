package software

import (
	"errors"
	"testing"

	"github.com/gogpu/heat/gpucore"
)

const doubleWorkgroup = 4

// doubleProgram writes y[i] = 2*x[i] for the elements of its workgroup.
func doubleProgram(g gpucore.Group, b *gpucore.Bindings) {
	x := b.F32(0)
	y := b.F32(1)
	for local := uint32(0); local < doubleWorkgroup; local++ {
		i := g.ID[0]*doubleWorkgroup + local
		if i < uint32(len(y)) {
			y[i] = 2 * x[i]
		}
	}
}

type testKernel struct {
	layout   gpucore.BindGroupLayoutID
	pipeline gpucore.ComputePipelineID
}

func newTestKernel(t *testing.T, a *Adapter) testKernel {
	t.Helper()

	mod, err := a.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "double",
		Host:  map[string]gpucore.HostProgram{"main": doubleProgram},
	})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	layout, err := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "double",
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
			{Binding: 1, Type: gpucore.BindingTypeStorageBuffer},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	pl, err := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{layout})
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	pipe, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label: "double", Layout: pl, ShaderModule: mod, EntryPoint: "main",
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	return testKernel{layout: layout, pipeline: pipe}
}

func newVector(t *testing.T, a *Adapter, label string, values []float32) gpucore.BufferID {
	t.Helper()
	id, err := a.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: uint64(len(values)) * 4, Usage: gpucore.UsageVector})
	if err != nil {
		t.Fatalf("CreateBuffer(%s): %v", label, err)
	}
	if err := gpucore.WriteFloat32(a, id, values); err != nil {
		t.Fatalf("WriteFloat32(%s): %v", label, err)
	}
	return id
}

func readVector(t *testing.T, a *Adapter, id gpucore.BufferID, n int) []float32 {
	t.Helper()
	got, err := gpucore.ReadFloat32(a, id, n)
	if err != nil {
		t.Fatalf("ReadFloat32: %v", err)
	}
	return got
}

func TestCreateBufferValidation(t *testing.T) {
	a := New()
	defer a.Destroy()

	tests := []struct {
		name string
		desc *gpucore.BufferDesc
	}{
		{"nil", nil},
		{"zero size", &gpucore.BufferDesc{Size: 0, Usage: gpucore.UsageVector}},
		{"unaligned", &gpucore.BufferDesc{Size: 6, Usage: gpucore.UsageVector}},
		{"no usage", &gpucore.BufferDesc{Size: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.CreateBuffer(tt.desc); !errors.Is(err, gpucore.ErrInvalidBuffer) {
				t.Errorf("CreateBuffer error = %v, want ErrInvalidBuffer", err)
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	a := New()
	defer a.Destroy()

	want := []float32{1, -2, 3.5, 0}
	id := newVector(t, a, "v", want)
	got := readVector(t, a, id, len(want))
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("v[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUsageEnforced(t *testing.T) {
	a := New()
	defer a.Destroy()

	id, err := a.CreateBuffer(&gpucore.BufferDesc{Label: "storage-only", Size: 16, Usage: gpucore.BufferUsageStorage})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.WriteBuffer(id, 0, make([]byte, 16)); !errors.Is(err, gpucore.ErrUsage) {
		t.Errorf("WriteBuffer error = %v, want ErrUsage", err)
	}
	if _, err := a.ReadBuffer(id, 0, 16); !errors.Is(err, gpucore.ErrUsage) {
		t.Errorf("ReadBuffer error = %v, want ErrUsage", err)
	}
	if _, err := a.ReadBuffer(gpucore.BufferID(9999), 0, 4); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("ReadBuffer(unknown) error = %v, want ErrUnknownResource", err)
	}
}

func TestDispatchRunsHostProgram(t *testing.T) {
	a := NewWithWorkers(3)
	defer a.Destroy()
	k := newTestKernel(t, a)

	const n = 10
	values := make([]float32, n)
	for i := range values {
		values[i] = float32(i)
	}
	x := newVector(t, a, "x", values)
	y := newVector(t, a, "y", make([]float32, n))

	bg, err := a.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  "double",
		Layout: k.layout,
		Entries: []gpucore.BindGroupEntry{
			{Binding: 0, Buffer: x},
			{Binding: 1, Buffer: y},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}

	enc, err := a.CreateCommandEncoder("double")
	if err != nil {
		t.Fatal(err)
	}
	pass := enc.BeginComputePass("double")
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, bg)
	pass.Dispatch(gpucore.WorkgroupCount(n, doubleWorkgroup), 1, 1)
	pass.End()
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := a.Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got := readVector(t, a, y, n)
	for i := range got {
		if want := 2 * float32(i); got[i] != want {
			t.Errorf("y[%d] = %v, want %v", i, got[i], want)
		}
	}
}

// TestSubmissionOrder checks that writes, copies and dispatches interleave
// in the order they were issued.
func TestSubmissionOrder(t *testing.T) {
	a := New()
	defer a.Destroy()

	src := newVector(t, a, "src", []float32{1, 2, 3, 4})
	dst := newVector(t, a, "dst", make([]float32, 4))

	enc, _ := a.CreateCommandEncoder("copy")
	enc.CopyBufferToBuffer(src, 0, dst, 0, 16)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Submit(cb); err != nil {
		t.Fatal(err)
	}
	// Issued after the submit, so the copy must observe the old values.
	if err := gpucore.WriteFloat32(a, src, []float32{9, 9, 9, 9}); err != nil {
		t.Fatal(err)
	}

	got := readVector(t, a, dst, 4)
	for i, want := range []float32{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestDispatchWithoutPipelineReportedAtWait(t *testing.T) {
	a := New()
	defer a.Destroy()

	enc, _ := a.CreateCommandEncoder("broken")
	pass := enc.BeginComputePass("broken")
	pass.Dispatch(1, 1, 1)
	pass.End()
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := a.Submit(cb); err != nil {
		t.Fatalf("Submit should not fail synchronously: %v", err)
	}
	if err := a.WaitIdle(); !errors.Is(err, ErrMissingPipeline) {
		t.Errorf("WaitIdle error = %v, want ErrMissingPipeline", err)
	}
	if err := a.WaitIdle(); err != nil {
		t.Errorf("second WaitIdle error = %v, want nil", err)
	}
}

func TestDispatchMissingBindGroup(t *testing.T) {
	a := New()
	defer a.Destroy()
	k := newTestKernel(t, a)

	enc, _ := a.CreateCommandEncoder("no-bind-group")
	pass := enc.BeginComputePass("no-bind-group")
	pass.SetPipeline(k.pipeline)
	pass.Dispatch(1, 1, 1)
	pass.End()
	cb, _ := enc.Finish()
	if err := a.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if err := a.WaitIdle(); !errors.Is(err, ErrMissingBindGroup) {
		t.Errorf("WaitIdle error = %v, want ErrMissingBindGroup", err)
	}
}

func TestBindGroupValidation(t *testing.T) {
	a := New()
	defer a.Destroy()
	k := newTestKernel(t, a)

	x := newVector(t, a, "x", make([]float32, 4))
	params, err := a.CreateBuffer(&gpucore.BufferDesc{Label: "params", Size: 16, Usage: gpucore.UsageParams})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		entries []gpucore.BindGroupEntry
		want    error
	}{
		{"missing entry", []gpucore.BindGroupEntry{{Binding: 0, Buffer: x}}, gpucore.ErrLayoutMismatch},
		{"wrong binding", []gpucore.BindGroupEntry{{Binding: 0, Buffer: x}, {Binding: 5, Buffer: x}}, gpucore.ErrLayoutMismatch},
		{"uniform as storage", []gpucore.BindGroupEntry{{Binding: 0, Buffer: x}, {Binding: 1, Buffer: params}}, gpucore.ErrUsage},
		{"range", []gpucore.BindGroupEntry{{Binding: 0, Buffer: x, Offset: 8, Size: 16}, {Binding: 1, Buffer: x}}, gpucore.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.CreateBindGroup(&gpucore.BindGroupDesc{Layout: k.layout, Entries: tt.entries})
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateBindGroup error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPipelineRequiresHostProgram(t *testing.T) {
	a := New()
	defer a.Destroy()

	mod, _ := a.CreateShaderModule(&gpucore.ShaderModuleDesc{Label: "wgsl-only", WGSL: "@compute @workgroup_size(1) fn main() {}"})
	layout, _ := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{})
	pl, _ := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{layout})
	_, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: mod, EntryPoint: "main"})
	if !errors.Is(err, ErrNoHostProgram) {
		t.Errorf("CreateComputePipeline error = %v, want ErrNoHostProgram", err)
	}
}

func TestEncoderErrors(t *testing.T) {
	a := New()
	defer a.Destroy()

	enc, _ := a.CreateCommandEncoder("open")
	enc.BeginComputePass("left-open")
	if _, err := enc.Finish(); !errors.Is(err, ErrPassOpen) {
		t.Errorf("Finish with open pass error = %v, want ErrPassOpen", err)
	}

	enc, _ = a.CreateCommandEncoder("twice")
	cb, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if cb.Label() != "twice" {
		t.Errorf("Label() = %q, want %q", cb.Label(), "twice")
	}
	if err := a.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if err := a.Submit(cb); !errors.Is(err, ErrResubmitted) {
		t.Errorf("second Submit error = %v, want ErrResubmitted", err)
	}
}

func TestHostPanicBecomesError(t *testing.T) {
	a := New()
	defer a.Destroy()

	mod, _ := a.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Host: map[string]gpucore.HostProgram{"main": func(_ gpucore.Group, b *gpucore.Bindings) {
			_ = b.F32(3) // not bound
		}},
	})
	layout, _ := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{})
	pl, _ := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{layout})
	pipe, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{Label: "panics", Layout: pl, ShaderModule: mod, EntryPoint: "main"})
	if err != nil {
		t.Fatal(err)
	}
	bg, err := a.CreateBindGroup(&gpucore.BindGroupDesc{Layout: layout})
	if err != nil {
		t.Fatal(err)
	}

	enc, _ := a.CreateCommandEncoder("panics")
	pass := enc.BeginComputePass("panics")
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, bg)
	pass.Dispatch(2, 1, 1)
	pass.End()
	cb, _ := enc.Finish()
	if err := a.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if err := a.WaitIdle(); err == nil {
		t.Error("WaitIdle should report the host program panic")
	}
}

func TestDestroy(t *testing.T) {
	a := New()
	a.Destroy()
	a.Destroy()

	if _, err := a.CreateBuffer(&gpucore.BufferDesc{Size: 4, Usage: gpucore.UsageVector}); !errors.Is(err, gpucore.ErrAdapterDestroyed) {
		t.Errorf("CreateBuffer after Destroy error = %v, want ErrAdapterDestroyed", err)
	}
	if err := a.Submit(); !errors.Is(err, gpucore.ErrAdapterDestroyed) {
		t.Errorf("Submit after Destroy error = %v, want ErrAdapterDestroyed", err)
	}
}
