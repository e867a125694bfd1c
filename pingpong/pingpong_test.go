package pingpong

import "testing"

func TestDirectionNext(t *testing.T) {
	if got := Forward.Next(); got != Backward {
		t.Errorf("Forward.Next() = %v, want backward", got)
	}
	if got := Backward.Next(); got != Forward {
		t.Errorf("Backward.Next() = %v, want forward", got)
	}
}

func TestDirectionString(t *testing.T) {
	tests := []struct {
		d    Direction
		want string
	}{
		{Forward, "forward"},
		{Backward, "backward"},
		{Direction(7), "Direction(7)"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParity(t *testing.T) {
	d := New("f", "b")
	for k := uint64(0); k < 9; k++ {
		want := Forward
		if k%2 == 1 {
			want = Backward
		}
		if got := d.Direction(); got != want {
			t.Fatalf("after %d steps: direction = %v, want %v", k, got, want)
		}
		if got := At(k); got != want {
			t.Fatalf("At(%d) = %v, want %v", k, got, want)
		}
		if d.Steps() != k {
			t.Fatalf("Steps() = %d, want %d", d.Steps(), k)
		}
		d.Advance()
	}
}

func TestSelect(t *testing.T) {
	d := New(1, 2)
	if got := d.Select(); got != 1 {
		t.Errorf("Select() = %d, want 1", got)
	}
	d.Advance()
	if got := d.Select(); got != 2 {
		t.Errorf("Select() after Advance = %d, want 2", got)
	}
	if d.Get(Forward) != 1 || d.Get(Backward) != 2 {
		t.Error("Get does not follow the explicit direction")
	}
	d.Reset()
	if d.Direction() != Forward || d.Steps() != 0 || d.Select() != 1 {
		t.Error("Reset did not return to forward")
	}
}

func TestZeroValue(t *testing.T) {
	var d Directional[int]
	if d.Direction() != Forward || d.Select() != 0 {
		t.Errorf("zero Directional: direction %v, value %d", d.Direction(), d.Select())
	}
}

func TestPairNeverAliases(t *testing.T) {
	d, err := NewPair(uint64(10), uint64(20))
	if err != nil {
		t.Fatal(err)
	}
	prevNext := uint64(0)
	for k := 0; k < 6; k++ {
		p := d.Select()
		if p.Current == p.Next {
			t.Fatalf("step %d: current and next are both %d", k, p.Current)
		}
		if k > 0 && p.Current != prevNext {
			t.Fatalf("step %d: current %d, want previous next %d", k, p.Current, prevNext)
		}
		prevNext = p.Next
		d.Advance()
	}
	// Period two: back to the original current buffer.
	if got := d.Select().Current; got != 10 {
		t.Errorf("after 6 steps current = %d, want 10", got)
	}
}

func TestPairRejectsSameBuffer(t *testing.T) {
	if _, err := NewPair(3, 3); err == nil {
		t.Fatal("NewPair(3, 3) succeeded")
	}
}
