package gpu

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenOpenCLUnavailable(t *testing.T) {
	dev, err := Open("opencl", discardLogger())
	if err == nil {
		t.Fatal("Open(opencl) error = nil, want ErrUnavailable")
	}
	if dev != nil {
		t.Fatal("Open(opencl) returned a device, want nil")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(opencl) error = %v, want wrapping ErrUnavailable", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("vulkan", discardLogger())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(vulkan) error = %v, want ErrUnavailable", err)
	}
}

func TestEmulatorRunsBatchInOrder(t *testing.T) {
	dev, err := Open("emulator", discardLogger())
	if err != nil {
		t.Fatalf("Open(emulator): %v", err)
	}
	defer dev.Close()

	var order []int
	jobs := make([]Job, 5)
	for i := range jobs {
		i := i
		jobs[i] = func() error {
			order = append(order, i)
			return nil
		}
	}
	if err := dev.Run(jobs); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("execution order = %v, want ascending", order)
		}
	}
}

func TestEmulatorJoinsJobErrors(t *testing.T) {
	dev := NewEmulator(discardLogger())
	defer dev.Close()

	boom := errors.New("boom")
	bang := errors.New("bang")
	var ran atomic.Int32
	err := dev.Run([]Job{
		func() error { ran.Add(1); return boom },
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return bang },
	})
	if !errors.Is(err, boom) || !errors.Is(err, bang) {
		t.Errorf("Run error = %v, want boom and bang joined", err)
	}
	if ran.Load() != 3 {
		t.Errorf("ran %d jobs, want 3", ran.Load())
	}
}

func TestEmulatorClosed(t *testing.T) {
	dev := NewEmulator(discardLogger())
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	err := dev.Run([]Job{func() error { return nil }})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Run after Close error = %v, want ErrClosed", err)
	}
}

func TestDriversListed(t *testing.T) {
	names := Drivers()
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["emulator"] || !seen["opencl"] {
		t.Errorf("Drivers() = %v, want emulator and opencl", names)
	}
}
