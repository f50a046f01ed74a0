package rule

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Noise shaping for generated rules. Frequencies stay in a band that
// produces visible structure at canvas scale; amplitudes are centered on
// zero so generated rules neither attract nor repel on average.
const (
	genAlpha   = 2.0
	genBeta    = 2.0
	genOctaves = 3
	freqScale  = 4.0
	ampScale   = 1.0
)

// Generate builds a rule procedurally from a seed. The same seed always
// yields the same rule, so a preset that stores only its rule seed can
// reconstruct the identical behavior.
func Generate(seed float64) Rule {
	p := perlin.NewPerlin(genAlpha, genBeta, genOctaves, int64(math.Float64bits(seed)))

	var r Rule
	for i := 0; i < Centers; i++ {
		for j := 0; j < 4; j++ {
			// Sample well-separated lattice points so coefficients decorrelate.
			x := float64(i)*1.37 + seed
			y := float64(j) * 2.93
			r[i][j] = float32(p.Noise2D(x, y) * freqScale)
			r[i][j+4] = float32(p.Noise2D(x+17.0, y+5.0) * ampScale)
		}
	}
	return r
}
