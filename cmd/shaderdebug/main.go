// Shader debug tool - compiles the embedded pipeline shaders against a real
// GL context and optionally renders one of them to a PNG for inspection.
//
// Usage: go run ./cmd/shaderdebug            # compile-check everything
//
//	go run ./cmd/shaderdebug -render canvas.frag -out canvas.png
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/gpu"
)

func main() {
	renderName := flag.String("render", "", "Shader name to render to PNG (empty = compile-check only)")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	flag.Parse()

	// Shader compilation needs a live context, hidden window is enough.
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	sources := gpu.ShaderSources()
	names := make([]string, 0, len(sources))
	for name := range sources {
		if strings.HasSuffix(name, ".frag") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	failures := 0
	for _, name := range names {
		shader := rl.LoadShaderFromMemory(sources["fullscreen.vert"], sources[name])
		if !rl.IsShaderValid(shader) {
			fmt.Fprintf(os.Stderr, "FAIL %s\n", name)
			failures++
			continue
		}
		fmt.Printf("ok   %s\n", name)
		if name == *renderName {
			renderToPNG(shader, *width, *height, *outPath)
		}
		rl.UnloadShader(shader)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d shaders failed to compile\n", failures, len(names))
		os.Exit(1)
	}
}

func renderToPNG(shader rl.Shader, width, height int, outPath string) {
	target := rl.LoadRenderTexture(int32(width), int32(height))
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	rl.BeginShaderMode(shader)
	rl.DrawRectangle(0, 0, int32(width), int32(height), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()

	// Flip for the OpenGL texture convention before export.
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)
	ok := rl.ExportImage(*img, outPath)
	rl.UnloadImage(img)

	if !ok {
		fmt.Fprintf(os.Stderr, "failed to export %s\n", outPath)
		os.Exit(1)
	}
	fmt.Printf("rendered %s (%dx%d)\n", outPath, width, height)
}
