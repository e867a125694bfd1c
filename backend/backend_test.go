package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/heat/gpucore"
)

func TestRegisterOpenUnregister(t *testing.T) {
	const name = "test-open"
	called := 0
	Register(name, func() (gpucore.Adapter, error) {
		called++
		return nil, nil
	})
	t.Cleanup(func() { Unregister(name) })

	if !IsRegistered(name) {
		t.Fatalf("IsRegistered(%q) = false after Register", name)
	}
	if !slices.Contains(Available(), name) {
		t.Errorf("Available() = %v, want it to contain %q", Available(), name)
	}
	if _, err := Open(name); err != nil {
		t.Fatalf("Open(%q) error = %v", name, err)
	}
	if called != 1 {
		t.Errorf("factory called %d times, want 1", called)
	}

	Unregister(name)
	if _, err := Open(name); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open after Unregister error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenWrapsFactoryError(t *testing.T) {
	const name = "test-broken"
	boom := errors.New("no device")
	Register(name, func() (gpucore.Adapter, error) { return nil, boom })
	t.Cleanup(func() { Unregister(name) })

	if _, err := Open(name); !errors.Is(err, boom) {
		t.Errorf("Open error = %v, want wrapped %v", err, boom)
	}
}

func TestDefaultFallsBack(t *testing.T) {
	origPriority := backendPriority
	t.Cleanup(func() {
		backendPriority = origPriority
		Unregister("test-first")
		Unregister("test-second")
	})
	backendPriority = []string{"test-first", "test-second"}

	Register("test-first", func() (gpucore.Adapter, error) { return nil, errors.New("no gpu") })
	picked := false
	Register("test-second", func() (gpucore.Adapter, error) {
		picked = true
		return nil, nil
	})

	if _, err := Default(); err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if !picked {
		t.Error("Default() did not fall back to the second backend")
	}
}

func TestDefaultNothingOpens(t *testing.T) {
	origPriority := backendPriority
	t.Cleanup(func() { backendPriority = origPriority })
	backendPriority = []string{"test-missing"}

	if _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}
}
