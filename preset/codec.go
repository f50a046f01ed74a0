package preset

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aphid91/Fluoddity-Core/rule"
)

// Version is the current persisted format: a tagged JSON container.
// Versions 1-6 are a legacy packed binary layout, supported read-only.
const Version = 7

// clipboardPrefix tags serialized preset strings.
const clipboardPrefix = "SIM"

// presetJSON is the v7 wire layout. Physics values and sweeps are keyed by
// canonical parameter name, slider ranges by UI label, both for
// compatibility with existing preset files.
type presetJSON struct {
	Version       int                  `json:"version"`
	Physics       map[string]float64   `json:"physics"`
	SliderRanges  map[string][]float64 `json:"slider_ranges"`
	Sweeps        sweepsJSON           `json:"sweeps"`
	SweepsEnabled bool                 `json:"parameter_sweeps_enabled"`
	Settings      settingsJSON         `json:"settings"`
	Appearance    appearanceJSON       `json:"appearance"`
	Rule          []float32            `json:"rule"`
}

type sweepsJSON struct {
	X      map[string]float64 `json:"x"`
	Y      map[string]float64 `json:"y"`
	Cohort map[string]float64 `json:"cohort"`
}

type settingsJSON struct {
	DisableSymmetry     bool    `json:"disable_symmetry"`
	AbsoluteOrientation int     `json:"absolute_orientation"`
	OrientationMix      float64 `json:"orientation_mix"`
	BoundaryConditions  int     `json:"boundary_conditions"`
	InitialConditions   int     `json:"initial_conditions"`
	NumCohorts          int     `json:"num_cohorts"`
	RuleSeed            float64 `json:"rule_seed"`
}

type appearanceJSON struct {
	InkWeight        float64 `json:"ink_weight"`
	HueSensitivity   float64 `json:"hue_sensitivity"`
	ColorByCohort    bool    `json:"color_by_cohort"`
	WatercolorMode   bool    `json:"watercolor_mode"`
	EmbossMode       int     `json:"emboss_mode"`
	EmbossIntensity  float64 `json:"emboss_intensity"`
	EmbossSmoothness float64 `json:"emboss_smoothness"`
}

// MarshalJSON encodes the preset in the v7 layout.
func (p *Preset) MarshalJSON() ([]byte, error) {
	physics := make(map[string]float64, NumParams)
	for q := Param(0); q < NumParams; q++ {
		physics[strings.ToLower(q.String())] = p.Values[q]
	}

	ranges := make(map[string][]float64, len(p.Ranges))
	for q, r := range p.Ranges {
		ranges[q.Label()] = []float64{r.CurMin, r.CurMax, r.DefMin, r.DefMax}
	}

	return json.Marshal(presetJSON{
		Version:      Version,
		Physics:      physics,
		SliderRanges: ranges,
		Sweeps: sweepsJSON{
			X:      sweepsToJSON(p.XSweeps),
			Y:      sweepsToJSON(p.YSweeps),
			Cohort: sweepsToJSON(p.CohortSweeps),
		},
		SweepsEnabled: p.SweepsEnabled,
		Settings: settingsJSON{
			DisableSymmetry:     p.DisableSymmetry,
			AbsoluteOrientation: int(p.Orientation),
			OrientationMix:      p.OrientationMix,
			BoundaryConditions:  int(p.Boundary),
			InitialConditions:   int(p.Initial),
			NumCohorts:          p.NumCohorts,
			RuleSeed:            p.RuleSeed,
		},
		Appearance: appearanceJSON{
			InkWeight:        p.InkWeight,
			HueSensitivity:   p.HueSensitivity,
			ColorByCohort:    p.ColorByCohort,
			WatercolorMode:   p.Watercolor,
			EmbossMode:       int(p.Emboss),
			EmbossIntensity:  p.EmbossIntensity,
			EmbossSmoothness: p.EmbossSmoothness,
		},
		Rule: p.Rule.Flatten(),
	})
}

// UnmarshalJSON decodes a v7 payload, defaulting any missing field so
// partial payloads load rather than error.
func (p *Preset) UnmarshalJSON(data []byte) error {
	*p = *New()

	// Pre-seed the wire struct with defaults so absent fields keep them.
	w := presetJSON{
		Settings: settingsJSON{
			OrientationMix: p.OrientationMix,
			NumCohorts:     p.NumCohorts,
			RuleSeed:       p.RuleSeed,
		},
		Appearance: appearanceJSON{
			InkWeight:        p.InkWeight,
			HueSensitivity:   p.HueSensitivity,
			ColorByCohort:    p.ColorByCohort,
			EmbossIntensity:  p.EmbossIntensity,
			EmbossSmoothness: p.EmbossSmoothness,
		},
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	for q := Param(0); q < NumParams; q++ {
		if v, ok := w.Physics[strings.ToLower(q.String())]; ok {
			p.Values[q] = v
		}
	}

	for label, vals := range w.SliderRanges {
		q, ok := paramByLabel(label)
		if !ok || len(vals) < 4 {
			continue
		}
		p.Ranges[q] = Range{CurMin: vals[0], CurMax: vals[1], DefMin: vals[2], DefMax: vals[3]}
	}

	sweepsFromJSON(p.XSweeps, w.Sweeps.X)
	sweepsFromJSON(p.YSweeps, w.Sweeps.Y)
	sweepsFromJSON(p.CohortSweeps, w.Sweeps.Cohort)
	p.SweepsEnabled = w.SweepsEnabled

	p.DisableSymmetry = w.Settings.DisableSymmetry
	p.Orientation = OrientationMode(w.Settings.AbsoluteOrientation)
	p.OrientationMix = w.Settings.OrientationMix
	p.Boundary = BoundaryMode(w.Settings.BoundaryConditions)
	p.Initial = InitialMode(w.Settings.InitialConditions)
	p.NumCohorts = w.Settings.NumCohorts
	p.RuleSeed = w.Settings.RuleSeed

	p.InkWeight = w.Appearance.InkWeight
	p.HueSensitivity = w.Appearance.HueSensitivity
	p.ColorByCohort = w.Appearance.ColorByCohort
	p.Watercolor = w.Appearance.WatercolorMode
	p.Emboss = EmbossMode(w.Appearance.EmbossMode)
	p.EmbossIntensity = w.Appearance.EmbossIntensity
	p.EmbossSmoothness = w.Appearance.EmbossSmoothness

	p.Rule = rule.FromFlat(w.Rule)
	return nil
}

func sweepsToJSON(s Sweeps) map[string]float64 {
	m := make(map[string]float64, NumParams)
	for q := Param(0); q < NumParams; q++ {
		m[q.String()] = float64(s[q])
	}
	return m
}

func sweepsFromJSON(dst Sweeps, src map[string]float64) {
	for name, mode := range src {
		if q, ok := ParamByName(name); ok && mode != 0 {
			dst[q] = SweepMode(mode)
		}
	}
}

func paramByLabel(label string) (Param, bool) {
	for q := Param(0); q < NumParams; q++ {
		if q.Label() == label {
			return q, true
		}
	}
	return 0, false
}

// EncodeString serializes the preset to a shareable string:
// "SIM7:" + base64(zlib(JSON)).
func (p *Preset) EncodeString() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding preset: %w", err)
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("encoding preset: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("encoding preset: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("encoding preset: %w", err)
	}

	return fmt.Sprintf("%s%d:%s", clipboardPrefix, Version,
		base64.URLEncoding.EncodeToString(buf.Bytes())), nil
}

// DecodeString parses a "SIMn:..." string, accepting the current JSON
// format and the legacy binary versions 1-6.
func DecodeString(s string) (*Preset, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, clipboardPrefix) {
		return nil, fmt.Errorf("decoding preset: missing %s prefix", clipboardPrefix)
	}
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return nil, fmt.Errorf("decoding preset: missing version separator")
	}
	version, err := strconv.Atoi(s[len(clipboardPrefix):colon])
	if err != nil {
		return nil, fmt.Errorf("decoding preset: bad version: %w", err)
	}

	compressed, err := base64.URLEncoding.DecodeString(s[colon+1:])
	if err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}

	switch {
	case version == Version:
		p := New()
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decoding preset: %w", err)
		}
		return p, nil
	case version >= 1 && version <= 6:
		return decodeLegacy(raw, version)
	default:
		return nil, fmt.Errorf("decoding preset: unsupported version %d", version)
	}
}

// SaveFile writes the preset as indented JSON.
func (p *Preset) SaveFile(path string) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("saving preset: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("saving preset: %w", err)
	}
	return nil
}

// LoadFile reads a preset file: JSON (v7) or a legacy SIM string.
func LoadFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading preset: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(clipboardPrefix)) {
		return DecodeString(string(data))
	}
	p := New()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("loading preset %s: %w", path, err)
	}
	return p, nil
}
