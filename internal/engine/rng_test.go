package engine

import (
	"math"
	"testing"
)

func TestMulberry32KnownSequence(t *testing.T) {
	tests := []struct {
		seed uint32
		want []uint32
	}{
		{seed: 0, want: []uint32{1144304738, 1416247, 958946056}},
		{seed: 42, want: []uint32{2581720956, 1925393290, 3661312704}},
	}

	for _, tt := range tests {
		rng := NewMulberry32(tt.seed)
		for i, want := range tt.want {
			if got := rng.Next(); got != want {
				t.Errorf("seed %d output %d: expected %d, got %d", tt.seed, i, want, got)
			}
		}
	}
}

func TestMulberry32Resume(t *testing.T) {
	a := NewMulberry32(42)
	a.Next()
	b := NewMulberry32(a.State())
	if got, want := b.Next(), a.Next(); got != want {
		t.Errorf("resumed generator diverged: expected %d, got %d", want, got)
	}
}

func TestMulberry32FloatRange(t *testing.T) {
	rng := NewMulberry32(12345)
	for i := 0; i < 10000; i++ {
		f := rng.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("float %d out of range [0, 1): %f", i, f)
		}
	}
}

func TestMulberry32IntN(t *testing.T) {
	rng := NewMulberry32(7)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		n := rng.IntN(5)
		if n < 0 || n >= 5 {
			t.Fatalf("IntN(5) returned %d", n)
		}
		seen[n] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected all 5 values over 1000 draws, saw %d", len(seen))
	}
}

func TestFloatsKnownVector(t *testing.T) {
	seeds := Seeds{Server: "test_server_seed", Client: "test_client_seed"}
	want := []float64{0.9670919121708721, 0.7818480387795717, 0.09741653245873749}

	got := Floats(seeds, 1, len(want))
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("float %d: expected %.17f, got %.17f", i, want[i], got[i])
		}
	}
}

func TestByteGeneratorCursor(t *testing.T) {
	seeds := Seeds{Server: "test_server_seed", Client: "test_client_seed"}
	all := Floats(seeds, 3, 12)

	// Cursor 4 skips the first float; cursor 32 starts on the second HMAC round.
	if got := NewByteGenerator(seeds, 3, 4).Float64(); got != all[1] {
		t.Errorf("cursor 4: expected %f, got %f", all[1], got)
	}
	if got := NewByteGenerator(seeds, 3, 32).Float64(); got != all[8] {
		t.Errorf("cursor 32: expected %f, got %f", all[8], got)
	}
}

func TestFloatsDifferByNonce(t *testing.T) {
	seeds := Seeds{Server: "a", Client: "b"}
	if Floats(seeds, 1, 1)[0] == Floats(seeds, 2, 1)[0] {
		t.Error("expected different floats for different nonces")
	}
}

func TestServerHash(t *testing.T) {
	if got := (Seeds{}).ServerHash(); got != "" {
		t.Errorf("expected empty hash for empty seed, got %q", got)
	}
	h := Seeds{Server: "abc"}.ServerHash()
	if h != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected sha256: %s", h)
	}
}
