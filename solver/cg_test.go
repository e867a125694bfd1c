package solver

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gogpu/heat/backend/software"
	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/kernels"
	"github.com/gogpu/heat/sparse"
)

type testEnv struct {
	dev *software.Adapter
	lib *kernels.Library
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dev := software.New()
	lib, err := kernels.NewLibrary(dev)
	if err != nil {
		dev.Destroy()
		t.Fatalf("NewLibrary: %v", err)
	}
	t.Cleanup(func() {
		lib.Close()
		dev.Destroy()
	})
	return &testEnv{dev: dev, lib: lib}
}

func (e *testEnv) vector(t *testing.T, values []float32) gpucore.BufferID {
	t.Helper()
	id, err := e.dev.CreateBuffer(&gpucore.BufferDesc{Size: uint64(len(values)) * 4, Usage: gpucore.UsageVector})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := gpucore.WriteFloat32(e.dev, id, values); err != nil {
		t.Fatalf("WriteFloat32: %v", err)
	}
	return id
}

func (e *testEnv) read(t *testing.T, id gpucore.BufferID, n int) []float32 {
	t.Helper()
	got, err := gpucore.ReadFloat32(e.dev, id, n)
	if err != nil {
		t.Fatalf("ReadFloat32: %v", err)
	}
	return got
}

// system uploads m and returns the device matrix and a scratch arena.
func (e *testEnv) system(t *testing.T, m *sparse.DIA) (*sparse.Matrix, *Scratch) {
	t.Helper()
	gm, err := sparse.Upload(e.dev, m, "A")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	t.Cleanup(gm.Release)
	s, err := NewScratch(e.dev, uint32(m.Rows), "cg")
	if err != nil {
		t.Fatalf("NewScratch: %v", err)
	}
	t.Cleanup(s.Release)
	return gm, s
}

// spd4 is a dense symmetric diagonally dominant 4×4 matrix.
var spd4 = []float32{
	4, 1, 0, 1,
	1, 3, 1, 0,
	0, 1, 5, 2,
	1, 0, 2, 6,
}

func spd4DIA(t *testing.T) *sparse.DIA {
	t.Helper()
	m, err := sparse.FromDense(4, 4, spd4, []int32{-3, -2, -1, 0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCGConvergesSmallSPD(t *testing.T) {
	want := []float32{1, 2, -1, 0.5}
	m := spd4DIA(t)
	b := make([]float32, 4)
	m.MulVec(b, want)

	for _, steps := range []int{4, 8} {
		e := newTestEnv(t)
		gm, s := e.system(t, m)
		bBuf := e.vector(t, b)
		xBuf := e.vector(t, make([]float32, 4))

		cg, err := New(e.lib, gm, bBuf, xBuf, s, WithMaxSteps(steps))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := cg.Solve(); err != nil {
			t.Fatalf("Solve: %v", err)
		}
		got := e.read(t, xBuf, 4)
		for i := range want {
			if d := math.Abs(float64(got[i] - want[i])); d > 1e-3 {
				t.Errorf("steps=%d: x[%d] = %v, want %v", steps, i, got[i], want[i])
			}
		}
	}
}

func TestCGMatchesDenseSolve(t *testing.T) {
	const grid = 3
	implicit, _, err := sparse.HeatOperators(grid, 0.5, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	n := implicit.Rows
	b := make([]float32, n)
	for i := range b {
		b[i] = float32(i%4) - 1.5
	}

	bVec := mat.NewVecDense(n, nil)
	for i, v := range b {
		bVec.SetVec(i, float64(v))
	}
	var ref mat.VecDense
	if err := ref.SolveVec(implicit.Dense(), bVec); err != nil {
		t.Fatalf("reference solve: %v", err)
	}

	e := newTestEnv(t)
	gm, s := e.system(t, implicit)
	bBuf := e.vector(t, b)
	xBuf := e.vector(t, make([]float32, n))
	cg, err := New(e.lib, gm, bBuf, xBuf, s, WithMaxSteps(2*n))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cg.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	got := e.read(t, xBuf, n)
	for i := range got {
		if d := math.Abs(float64(got[i]) - ref.AtVec(i)); d > 1e-4 {
			t.Errorf("x[%d] = %v, want %v", i, got[i], ref.AtVec(i))
		}
	}
}

func TestCGZeroStepsInitializesOnly(t *testing.T) {
	e := newTestEnv(t)
	m := spd4DIA(t)
	gm, s := e.system(t, m)
	x0 := []float32{1, 0, 0, 0}
	b := []float32{1, 1, 1, 1}
	bBuf := e.vector(t, b)
	xBuf := e.vector(t, x0)

	cg, err := New(e.lib, gm, bBuf, xBuf, s, WithMaxSteps(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cg.MaxSteps() != 0 {
		t.Fatalf("MaxSteps() = %d, want 0", cg.MaxSteps())
	}
	if err := cg.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if got := e.read(t, xBuf, 4); got[0] != 1 || got[1] != 0 || got[2] != 0 || got[3] != 0 {
		t.Errorf("x changed with zero steps: %v", got)
	}
	ax := make([]float32, 4)
	m.MulVec(ax, x0)
	r := e.read(t, s.R, 4)
	p := e.read(t, s.P, 4)
	for i := range r {
		if want := b[i] - ax[i]; r[i] != want || p[i] != want {
			t.Errorf("r[%d]=%v p[%d]=%v, want %v", i, r[i], i, p[i], want)
		}
	}
}

func TestCGSolveIsRepeatable(t *testing.T) {
	// A second solve starts from the first solution and stays there.
	e := newTestEnv(t)
	want := []float32{1, 2, -1, 0.5}
	m := spd4DIA(t)
	b := make([]float32, 4)
	m.MulVec(b, want)
	gm, s := e.system(t, m)
	bBuf := e.vector(t, b)
	xBuf := e.vector(t, make([]float32, 4))

	cg, err := New(e.lib, gm, bBuf, xBuf, s, WithMaxSteps(6))
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := cg.Solve(); err != nil {
			t.Fatal(err)
		}
	}
	got := e.read(t, xBuf, 4)
	for i := range want {
		if d := math.Abs(float64(got[i] - want[i])); d > 1e-3 {
			t.Errorf("x[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCGStructure(t *testing.T) {
	e := newTestEnv(t)
	gm, s := e.system(t, spd4DIA(t))
	bBuf := e.vector(t, make([]float32, 4))
	xBuf := e.vector(t, make([]float32, 4))

	cg, err := New(e.lib, gm, bBuf, xBuf, s)
	if err != nil {
		t.Fatal(err)
	}
	if cg.MaxSteps() != DefaultMaxSteps {
		t.Errorf("MaxSteps() = %d, want %d", cg.MaxSteps(), DefaultMaxSteps)
	}
	if cg.Solution() != xBuf {
		t.Errorf("Solution() = %d, want %d", cg.Solution(), xBuf)
	}
	if got := len(cg.Initialization()); got != 2 {
		t.Errorf("initialization has %d steps, want 2", got)
	}
	// Three dot products of three stages, one SpMV and three updates.
	if got := len(cg.Iteration()); got != 13 {
		t.Errorf("iteration has %d steps, want 13", got)
	}
}

func TestCGRejectsBadSystems(t *testing.T) {
	e := newTestEnv(t)
	gm, s := e.system(t, spd4DIA(t))
	bBuf := e.vector(t, make([]float32, 4))
	xBuf := e.vector(t, make([]float32, 4))

	if _, err := New(e.lib, gm, bBuf, bBuf, s); !errors.Is(err, ErrAliased) {
		t.Errorf("aliased b and x: err = %v, want ErrAliased", err)
	}

	small, err := NewScratch(e.dev, 3, "small")
	if err != nil {
		t.Fatal(err)
	}
	defer small.Release()
	if _, err := New(e.lib, gm, bBuf, xBuf, small); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("scratch of 3: err = %v, want ErrSizeMismatch", err)
	}

	if _, err := NewScratch(e.dev, 0, "empty"); !errors.Is(err, ErrEmptySystem) {
		t.Errorf("NewScratch(0): err = %v, want ErrEmptySystem", err)
	}
}

func TestScratchRelease(t *testing.T) {
	e := newTestEnv(t)
	s, err := NewScratch(e.dev, 600, "s")
	if err != nil {
		t.Fatal(err)
	}
	if s.N() != 600 {
		t.Errorf("N() = %d", s.N())
	}
	r := s.R
	s.Release()
	s.Release()
	if s.R != gpucore.InvalidID {
		t.Error("Release left buffer IDs set")
	}
	if err := e.dev.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.dev.ReadBuffer(r, 0, 4); err == nil {
		t.Error("reading a released scratch buffer succeeded")
	}
}

func TestWithMaxStepsIgnoresNegative(t *testing.T) {
	o := defaultOptions()
	WithMaxSteps(-5)(&o)
	if o.maxSteps != DefaultMaxSteps {
		t.Errorf("maxSteps = %d, want %d", o.maxSteps, DefaultMaxSteps)
	}
	WithLabel("x")(&o)
	if o.label != "x" {
		t.Errorf("label = %q", o.label)
	}
}
