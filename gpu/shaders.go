package gpu

// Embedded GLSL for the raylib backend. Sources are assembled from shared
// snippets so every program that evaluates settings uses the exact same
// calculate_setting text; see TestSweepShaderParity.

// calcSettingGLSL must mirror preset.Setting.Effective operation for
// operation. The picker reads values back with the Go formula, so any
// drift between the two shows up as picked sliders disagreeing with the
// rendered field.
const calcSettingGLSL = `
struct Setting {
    float value;
    float min_value;
    float max_value;
    float x_sweep;
    float y_sweep;
    float cohort_sweep;
};

float calculate_setting(Setting s, vec2 pos, float cohort) {
    if (s.x_sweep == 0.0 && s.y_sweep == 0.0 && s.cohort_sweep == 0.0) {
        return s.value;
    }
    float nx = (pos.x + 1.0) / 2.0;
    float ny = (pos.y + 1.0) / 2.0;
    float sum = 0.0;
    float active = 0.0;
    if (s.x_sweep != 0.0) {
        if (s.x_sweep > 0.0) {
            sum += s.min_value + (s.max_value - s.min_value) * nx;
        } else {
            sum += s.max_value + (s.min_value - s.max_value) * nx;
        }
        active += 1.0;
    }
    if (s.y_sweep != 0.0) {
        if (s.y_sweep > 0.0) {
            sum += s.min_value + (s.max_value - s.min_value) * ny;
        } else {
            sum += s.max_value + (s.min_value - s.max_value) * ny;
        }
        active += 1.0;
    }
    if (s.cohort_sweep != 0.0) {
        if (s.cohort_sweep > 0.0) {
            sum += s.min_value + (s.max_value - s.min_value) * cohort;
        } else {
            sum += s.max_value + (s.min_value - s.max_value) * cohort;
        }
        active += 1.0;
    }
    return sum / active;
}
`

const fullscreenVert = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
out vec2 fragTexCoord;
uniform mat4 mvp;
void main() {
    fragTexCoord = vertexTexCoord;
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

// canvasFragHeader + calcSettingGLSL + canvasFragBody form the trail
// blend pass: persistence decay and diffusion of the front buffer plus
// the brush deposit, trail parameters evaluated per pixel.
const canvasFragHeader = `#version 330
in vec2 fragTexCoord;
out vec4 finalColor;

uniform sampler2D texture0;  // front trail buffer
uniform sampler2D brush_tex;
`

const canvasFragSettings = `
uniform Setting TRAIL_PERSISTENCE_SETTING;
uniform Setting TRAIL_DIFFUSION_SETTING;

uniform bool draw_active;
uniform vec2 draw_pos;
uniform float draw_size;
uniform float draw_power;
`

const canvasFragBody = `
const float TIME_STEP = 1.0 / 60.0;

void main() {
    vec2 world = fragTexCoord * 2.0 - 1.0;
    float persistence = calculate_setting(TRAIL_PERSISTENCE_SETTING, world, 0.5);
    float diffusion = calculate_setting(TRAIL_DIFFUSION_SETTING, world, 0.5);

    vec2 px = 1.0 / vec2(textureSize(texture0, 0));
    vec4 center = texture(texture0, fragTexCoord);
    vec4 blur = vec4(0.0);
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            blur += texture(texture0, fragTexCoord + vec2(dx, dy) * px);
        }
    }
    blur /= 9.0;

    vec4 diffused = mix(center, blur, diffusion);
    vec4 outc = diffused * persistence + texture(brush_tex, fragTexCoord);

    if (draw_active) {
        vec2 d = world - draw_pos;
        float w = exp(-dot(d, d) / (2.0 * draw_size * draw_size));
        outc += vec4(w * draw_power * TIME_STEP);
    }

    finalColor = outc;
}
`

// assemblyResolveFrag averages the accumulated samples and applies
// brightness, optional watercolor, and gamma.
const assemblyResolveFrag = `#version 330
in vec2 fragTexCoord;
out vec4 finalColor;

uniform sampler2D texture0;    // accumulation buffer
uniform sampler2D emboss_tex;  // relief source, bound per emboss mode
uniform int samples;
uniform float brightness;
uniform float gamma;
uniform float ink_weight;
uniform bool watercolor;
uniform int emboss_mode;
uniform float emboss_intensity;
uniform float emboss_smoothness;

void main() {
    vec3 v = texture(texture0, fragTexCoord).rgb / float(samples) * brightness;
    if (watercolor) {
        v = 1.0 - exp(-v * ink_weight);
    }
    if (emboss_mode != 0) {
        vec2 px = max(emboss_smoothness, 1.0) / vec2(textureSize(emboss_tex, 0));
        float a = texture(emboss_tex, fragTexCoord - px).a;
        float b = texture(emboss_tex, fragTexCoord + px).a;
        v += (a - b) * emboss_intensity;
    }
    finalColor = vec4(pow(max(v, 0.0), vec3(1.0 / gamma)), 1.0);
}
`

// Assembled program sources.
var canvasFragSource = canvasFragHeader + calcSettingGLSL + canvasFragSettings + canvasFragBody

// ShaderSources returns every embedded source keyed by stage name, for
// offline compile checking. Every entry is compiled by the windowed
// device's Reload.
func ShaderSources() map[string]string {
	return map[string]string{
		"fullscreen.vert":       fullscreenVert,
		"canvas.frag":           canvasFragSource,
		"assembly_resolve.frag": assemblyResolveFrag,
	}
}
