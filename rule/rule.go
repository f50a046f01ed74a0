// Package rule defines the procedural force rule: a fixed-size matrix of
// weighted basis centers that drives per-cohort steering behavior, plus the
// bounded history stack used for exploration and preview flows.
package rule

// A rule is 10 basis centers, each a 4-component frequency vector followed
// by a 4-component amplitude vector.
const (
	Centers = 10
	Stride  = 8
	Floats  = Centers * Stride
)

// Rule is the full basis-center matrix. The zero value is the zero rule:
// no directed behavior.
type Rule [Centers][Stride]float32

// IsZero reports whether every coefficient is zero.
func (r Rule) IsZero() bool {
	for _, c := range r {
		for _, v := range c {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// Flatten returns the rule as a flat float slice in center-major order,
// the layout uploaded to the GPU and stored in preset files.
func (r Rule) Flatten() []float32 {
	out := make([]float32, 0, Floats)
	for _, c := range r {
		out = append(out, c[:]...)
	}
	return out
}

// FromFlat builds a rule from a flat coefficient list. Short input fills
// the remainder with zeros; extra values are ignored.
func FromFlat(flat []float32) Rule {
	var r Rule
	for i, v := range flat {
		if i >= Floats {
			break
		}
		r[i/Stride][i%Stride] = v
	}
	return r
}

// Freq returns the frequency vector of center i.
func (r Rule) Freq(i int) [4]float32 {
	return [4]float32{r[i][0], r[i][1], r[i][2], r[i][3]}
}

// Amp returns the amplitude vector of center i.
func (r Rule) Amp(i int) [4]float32 {
	return [4]float32{r[i][4], r[i][5], r[i][6], r[i][7]}
}
