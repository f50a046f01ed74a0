package render

import (
	"testing"

	"github.com/aphid91/Fluoddity-Core/gpu"
)

func newAssembler(t *testing.T, samples int) *Assembler {
	t.Helper()
	dev := gpu.NewCompute(nil)
	if err := dev.Init(0, 8); err != nil {
		t.Fatalf("device init: %v", err)
	}
	a := NewAssembler(dev, nil)
	a.Configure(8, 8, samples)
	return a
}

var plain = Style{Brightness: 1, Gamma: 1, InkWeight: 1}

func TestSingleSamplePassthrough(t *testing.T) {
	a := newAssembler(t, 1)
	for i := 0; i < 3; i++ {
		frame, ready := a.Assemble(plain)
		if !ready {
			t.Fatalf("call %d with samples=1 not ready", i)
		}
		if w, h := frame.Bounds(); w != 8 || h != 8 {
			t.Fatalf("frame bounds = %dx%d, want 8x8", w, h)
		}
	}
}

func TestMultiSampleGating(t *testing.T) {
	a := newAssembler(t, 4)
	for i := 0; i < 3; i++ {
		if _, ready := a.Assemble(plain); ready {
			t.Fatalf("sample %d of 4 reported ready", i)
		}
	}
	if _, ready := a.Assemble(plain); !ready {
		t.Fatal("final sample did not produce a frame")
	}

	// Ready is transient: the next call begins a new cycle.
	if _, ready := a.Assemble(plain); ready {
		t.Error("first sample of the next cycle reported ready")
	}
}

func TestReconfigureDiscardsInFlight(t *testing.T) {
	a := newAssembler(t, 4)
	a.Assemble(plain)
	a.Assemble(plain)
	if a.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", a.Pending())
	}

	a.Configure(8, 8, 2)
	if _, ready := a.Assemble(plain); ready {
		t.Error("first sample after reconfigure reported ready")
	}
	if _, ready := a.Assemble(plain); !ready {
		t.Error("second of 2 samples not ready after reconfigure")
	}
}

func TestCorrectionAppliedOnce(t *testing.T) {
	// With equal samples, the resolved average equals one sample; gamma
	// runs a single time over that average.
	a := newAssembler(t, 2)

	style := plain
	style.Gamma = 2

	a.Assemble(style)
	frame, ready := a.Assemble(style)
	if !ready {
		t.Fatal("cycle did not finish")
	}
	px := frame.(interface{ Pixels() []float32 }).Pixels()
	if px[3] != 1 {
		t.Errorf("resolved alpha = %v, want 1", px[3])
	}
	for c := 0; c < 3; c++ {
		if px[c] != 0 {
			t.Errorf("resolved channel %d = %v, want 0 for an empty trail", c, px[c])
		}
	}
}
