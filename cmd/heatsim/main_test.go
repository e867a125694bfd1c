package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSeedDeterministic(t *testing.T) {
	a := Seed(16, 1)
	b := Seed(16, 1)
	if len(a) != 256 {
		t.Fatalf("len = %d, want 256", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("field[%d] differs between runs: %v vs %v", i, a[i], b[i])
		}
		if a[i] < 0 || a[i] > 1.05 {
			t.Errorf("field[%d] = %v, want in [0, 1.05]", i, a[i])
		}
	}
	c := Seed(16, 2)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced the same noise")
	}
}

func TestColormap(t *testing.T) {
	c := NewColormap([]float32{2, 4, 6})
	if got := c.At(2); got.B != 255 || got.R != 0 {
		t.Errorf("At(lo) = %v, want pure blue", got)
	}
	if got := c.At(6); got.R != 255 || got.B != 0 {
		t.Errorf("At(hi) = %v, want pure red", got)
	}
	if got, want := c.At(100), c.At(6); got != want {
		t.Errorf("At above range = %v, want clamped %v", got, want)
	}
	if got := NewColormap([]float32{3, 3}); got.hi <= got.lo {
		t.Errorf("constant field colormap = %+v, want a non-empty span", got)
	}
}

func TestRender(t *testing.T) {
	field := Seed(8, 1)
	c := NewColormap(field)
	img, err := Render(8, field, c, 3)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 24 {
		t.Errorf("bounds = %v, want 24×24", b)
	}
	if _, err := Render(8, field[:10], c, 1); err == nil {
		t.Error("expected an error for a short field")
	}
}

func TestWriteFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	field := Seed(4, 1)
	if err := WriteFrame(path, 4, field, NewColormap(field), 2); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("size = %dx%d, want 8x8", cfg.Width, cfg.Height)
	}
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-n", "32", "-steps", "5", "-cg-steps", "7", "-backend", "software"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.cfg.N != 32 || o.steps != 5 || o.cfg.CGSteps != 7 || o.backend != "software" {
		t.Errorf("parseFlags = %+v", o)
	}

	for _, args := range [][]string{
		{"-n", "1"},
		{"-steps", "-1"},
		{"-scale", "0"},
		{"-dt", "0"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v) succeeded, want error", args)
		}
	}
}

func TestRunSoftware(t *testing.T) {
	o, err := parseFlags([]string{"-n", "8", "-steps", "3", "-every", "2", "-cg-steps", "8",
		"-backend", "software", "-scale", "1", "-out", t.TempDir()})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if err := run(o); err != nil {
		t.Fatalf("run: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(o.out, "frame_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	// Initial frame, step 2 and the last step.
	if len(matches) != 3 {
		t.Errorf("wrote %d frames, want 3: %v", len(matches), matches)
	}
}
