// Preset migration tool - converts legacy SIM share strings into the
// current JSON preset format.
//
// Accepts individual files or directories. A file whose content starts
// with the share-string magic is decoded and rewritten as <name>.json next
// to it (or under -out when given); JSON files are already current and are
// skipped.
//
// Usage: go run ./cmd/presetmigrate -out migrated/ presets/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aphid91/Fluoddity-Core/preset"
)

func main() {
	outDir := flag.String("out", "", "Output directory (empty = alongside the source file)")
	dryRun := flag.Bool("dry-run", false, "Report what would be converted without writing")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: presetmigrate [-out dir] [-dry-run] <file-or-dir>...")
		os.Exit(2)
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
			os.Exit(1)
		}
	}

	converted, skipped, failed := 0, 0, 0
	for _, arg := range flag.Args() {
		err := filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			switch migrateFile(path, *outDir, *dryRun) {
			case resultConverted:
				converted++
			case resultSkipped:
				skipped++
			case resultFailed:
				failed++
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			failed++
		}
	}

	fmt.Printf("converted %d, skipped %d, failed %d\n", converted, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

type result int

const (
	resultConverted result = iota
	resultSkipped
	resultFailed
)

func migrateFile(path, outDir string, dryRun bool) result {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return resultFailed
	}

	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "SIM") {
		// Already JSON, or not a preset at all.
		return resultSkipped
	}

	p, err := preset.DecodeString(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: decode: %v\n", path, err)
		return resultFailed
	}

	dst := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if outDir != "" {
		dst = filepath.Join(outDir, filepath.Base(dst))
	}

	if dryRun {
		fmt.Printf("would convert %s -> %s\n", path, dst)
		return resultConverted
	}

	if err := p.SaveFile(dst); err != nil {
		fmt.Fprintf(os.Stderr, "%s: write: %v\n", dst, err)
		return resultFailed
	}
	fmt.Printf("converted %s -> %s\n", path, dst)
	return resultConverted
}
