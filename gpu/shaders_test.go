package gpu

import (
	"strings"
	"testing"
)

// TestSweepShaderParity pins the GLSL sweep evaluation to the Go formula:
// the canvas pass evaluates trail settings per texel and must embed the
// one shared calculate_setting snippet, and that snippet must contain the
// exact interpolation expressions preset.Setting.Effective uses.
func TestSweepShaderParity(t *testing.T) {
	src, ok := ShaderSources()["canvas.frag"]
	if !ok {
		t.Fatal("canvas.frag missing from sources")
	}
	if !strings.Contains(src, calcSettingGLSL) {
		t.Error("canvas.frag does not embed the shared calculate_setting snippet")
	}

	// The host formula, expression for expression.
	for _, expr := range []string{
		"float nx = (pos.x + 1.0) / 2.0;",
		"float ny = (pos.y + 1.0) / 2.0;",
		"sum += s.min_value + (s.max_value - s.min_value) * nx;",
		"sum += s.max_value + (s.min_value - s.max_value) * nx;",
		"sum += s.min_value + (s.max_value - s.min_value) * cohort;",
		"return sum / active;",
	} {
		if !strings.Contains(calcSettingGLSL, expr) {
			t.Errorf("calculate_setting lost expression %q", expr)
		}
	}
}

func TestShaderSourcesDeclareVersion(t *testing.T) {
	for name, src := range ShaderSources() {
		if !strings.HasPrefix(src, "#version 330") {
			t.Errorf("%s missing #version directive", name)
		}
	}
}
