package calculation

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// RandomSource is a deterministic stream of uniform floats in [0,1).
// A source is stateful and must be owned by a single run or simulation.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a source seeded with seed. Identical seeds yield
// identical sequences.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// SubstreamSeed derives the seed of simulation simIndex from the run seed.
// The hash is fixed so a simulation draws the same values however work is
// scheduled.
func SubstreamSeed(runSeed int64, simIndex int) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(runSeed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(simIndex))
	return int64(xxhash.Sum64(buf[:]))
}

// NormalSampler turns pairs of uniform draws into normal samples with the
// Box-Muller transform. Only z0 is used; each Sample consumes two accepted
// draws.
type NormalSampler struct {
	Source RandomSource
}

// NewNormalSampler wraps source.
func NewNormalSampler(source RandomSource) *NormalSampler {
	return &NormalSampler{Source: source}
}

// Sample returns one draw from Normal(mean, stdDev).
func (ns *NormalSampler) Sample(mean, stdDev float64) float64 {
	u := ns.nonZero()
	v := ns.nonZero()
	return boxMullerTransform(u, v)*stdDev + mean
}

// Uniform returns the next raw uniform draw.
func (ns *NormalSampler) Uniform() float64 {
	return ns.Source.Float64()
}

// nonZero redraws until the source yields a value other than exactly 0,
// keeping ln(u) defined.
func (ns *NormalSampler) nonZero() float64 {
	for {
		if u := ns.Source.Float64(); u != 0 {
			return u
		}
	}
}

// boxMullerTransform returns z0 for the uniform pair (u1, u2).
func boxMullerTransform(u1, u2 float64) float64 {
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
