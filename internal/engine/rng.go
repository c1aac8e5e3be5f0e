package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// Source picks indices in [0, n). Mulberry32 satisfies it.
type Source interface {
	IntN(n int) int
}

// Mulberry32 is a small counter-based PRNG used for reproducible shuffles.
// Algorithm: https://gist.github.com/tommyettinger/46a874533244883189143505d203312c
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a Mulberry32 PRNG with the given seed
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// State returns the internal counter. NewMulberry32(m.State()) resumes the sequence.
func (m *Mulberry32) State() uint32 {
	return m.state
}

// Next returns the next random uint32
func (m *Mulberry32) Next() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns a random float64 in [0, 1)
func (m *Mulberry32) Float64() float64 {
	return float64(m.Next()) / 4294967296.0
}

// IntN returns an int in [0, n). n must be positive.
func (m *Mulberry32) IntN(n int) int {
	idx := int(m.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// ByteGenerator streams HMAC-SHA256 bytes keyed by the server seed over
// "clientSeed:nonce:round", 32 bytes per round.
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a new byte generator positioned at cursor
func NewByteGenerator(seeds Seeds, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:   seeds.Server,
		clientSeed:   seeds.Client,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// Float64 consumes exactly 4 bytes and returns a float in [0, 1)
func (bg *ByteGenerator) Float64() float64 {
	var b [4]byte
	for i := range b {
		b[i] = bg.Next()
	}
	return bytesToFloat(b)
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	copy(bg.buffer[:], h.Sum(nil))
}

// bytesToFloat treats the bytes as base-256 fractional digits
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		result += float64(b) / math.Pow(256, float64(i+1))
	}
	return result
}

// Floats generates count floats for a nonce starting at cursor 0
func Floats(seeds Seeds, nonce uint64, count int) []float64 {
	bg := NewByteGenerator(seeds, nonce, 0)
	floats := make([]float64, count)
	for i := range floats {
		floats[i] = bg.Float64()
	}
	return floats
}
