// Preset statistics tool - summarizes a preset library.
//
// Scans a directory of JSON presets and reports per-parameter distribution
// statistics, useful for spotting which sliders a library actually explores
// and which sit at their defaults.
//
// Usage: go run ./cmd/presetstats -csv stats.csv presets/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aphid91/Fluoddity-Core/preset"
)

// ParamStats is one row of the report, per physics parameter.
type ParamStats struct {
	Param  string  `csv:"param"`
	Count  int     `csv:"count"`
	Mean   float64 `csv:"mean"`
	StdDev float64 `csv:"std_dev"`
	Min    float64 `csv:"min"`
	Max    float64 `csv:"max"`
	SweptX int     `csv:"swept_x"`
	SweptY int     `csv:"swept_y"`
	SweptC int     `csv:"swept_cohort"`
}

func main() {
	csvPath := flag.String("csv", "", "Write the report as CSV to this path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: presetstats [-csv out.csv] <preset-dir>")
		os.Exit(2)
	}
	dir := flag.Arg(0)

	presets, totalBytes, err := loadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", dir, err)
		os.Exit(1)
	}
	if len(presets) == 0 {
		fmt.Fprintf(os.Stderr, "no presets found under %s\n", dir)
		os.Exit(1)
	}

	fmt.Printf("%s presets, %s on disk\n",
		humanize.Comma(int64(len(presets))), humanize.Bytes(uint64(totalBytes)))

	rows := collect(presets)
	for _, row := range rows {
		fmt.Printf("%-22s mean %8.4f  sd %8.4f  range [%8.4f, %8.4f]  sweeps x/y/c %d/%d/%d\n",
			row.Param, row.Mean, row.StdDev, row.Min, row.Max, row.SweptX, row.SweptY, row.SweptC)
	}

	if *csvPath != "" {
		if err := writeCSV(*csvPath, rows); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *csvPath, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *csvPath)
	}
}

func loadDir(dir string) ([]*preset.Preset, int64, error) {
	var (
		presets    []*preset.Preset
		totalBytes int64
	)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return err
		}
		p, err := preset.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			return nil
		}
		if info, err := d.Info(); err == nil {
			totalBytes += info.Size()
		}
		presets = append(presets, p)
		return nil
	})
	return presets, totalBytes, err
}

func collect(presets []*preset.Preset) []ParamStats {
	rows := make([]ParamStats, 0, preset.NumParams)
	for _, q := range preset.AllParams() {
		values := make([]float64, len(presets))
		row := ParamStats{Param: q.String(), Count: len(presets)}
		for i, p := range presets {
			values[i] = p.Values[q]
			if p.XSweeps[q] != preset.SweepOff {
				row.SweptX++
			}
			if p.YSweeps[q] != preset.SweepOff {
				row.SweptY++
			}
			if p.CohortSweeps[q] != preset.SweepOff {
				row.SweptC++
			}
		}
		row.Mean = stat.Mean(values, nil)
		row.StdDev = stat.StdDev(values, nil)
		row.Min = floats.Min(values)
		row.Max = floats.Max(values)
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, rows []ParamStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.Marshal(rows, f)
}
