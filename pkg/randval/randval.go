// Package randval generates reproducible pseudo-random noise sequences.
package randval

import (
	"math"

	"gonum.org/v1/gonum/mathext/prng"
)

// ValSeq is the interface for getting an infinite sequence of values.
type ValSeq interface {
	Next() float64
}

// Config is the configuration for the value generators.
type Config struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stdDev"`

	// Seed is the random number generator seed. Only the lower
	// 32 bits are used, so seeds which differ above that produce
	// the same sequence.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns a copy of default config: standard normal
// scaled by 0.03, seeded with 0.
func DefaultConfig() Config {
	return Config{
		Mean:   0,
		StdDev: 0.03,
		Seed:   0,
	}
}

// NewNormalVal creates new normally distributed sequence.
//
// The draws are the ones numpy's legacy RandomState produces for
// normal(mean, stdDev): MT19937 seeded with init_genrand, 53-bit doubles
// and the polar method which hands out the second sample of each pair
// on the following call.
func NewNormalVal(config Config) ValSeq {
	src := prng.NewMT19937()
	src.Seed(uint64(uint32(config.Seed)))

	return &normalValT{
		config: config,
		src:    src,
	}
}

// normalValT implements `ValSeq`: gaussian values with cached pair.
type normalValT struct {
	config Config
	src    *prng.MT19937

	hasGauss bool
	gauss    float64
}

func (n *normalValT) Next() float64 {
	return n.config.Mean + n.config.StdDev*n.nextGauss()
}

func (n *normalValT) nextGauss() float64 {
	if n.hasGauss {
		n.hasGauss = false
		return n.gauss
	}

	var x1, x2, r2 float64
	for {
		x1 = 2*n.nextDouble() - 1
		x2 = 2*n.nextDouble() - 1
		r2 = x1*x1 + x2*x2
		if r2 < 1 && r2 != 0 {
			break
		}
	}

	f := math.Sqrt(-2 * math.Log(r2) / r2)
	n.gauss = f * x1
	n.hasGauss = true
	return f * x2
}

// nextDouble returns a uniform double in [0, 1) built from two 32-bit draws.
func (n *normalValT) nextDouble() float64 {
	a := n.src.Uint32() >> 5
	b := n.src.Uint32() >> 6
	return (float64(a)*67108864.0 + float64(b)) / 9007199254740992.0
}
