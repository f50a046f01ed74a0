package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// TickRecord is one row of the per-run CSV log.
type TickRecord struct {
	Tick              uint64  `csv:"tick"`
	FPS               int32   `csv:"fps"`
	EntityCount       int     `csv:"entity_count"`
	TrailPersistence  float64 `csv:"trail_persistence"`
	TrailDiffusion    float64 `csv:"trail_diffusion"`
	MultiLoadCount    int     `csv:"multiload_count"`
	MultiLoadProgress float64 `csv:"multiload_progress"`
	FramesEmitted     uint64  `csv:"frames_emitted"`
}

// Recorder appends tick records to a CSV file in the output directory.
// A nil *Recorder is valid and records nothing, so callers don't branch.
type Recorder struct {
	file          *os.File
	headerWritten bool
	buffer        []TickRecord
}

// flushEvery bounds how many rows are held before writing out.
const flushEvery = 256

// NewRecorder opens run.csv in dir. Returns nil when dir is empty
// (recording disabled).
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "run.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating run.csv: %w", err)
	}
	return &Recorder{file: f}, nil
}

// Record buffers one row, flushing when the buffer fills.
func (r *Recorder) Record(rec TickRecord) error {
	if r == nil {
		return nil
	}
	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= flushEvery {
		return r.Flush()
	}
	return nil
}

// Flush writes buffered rows to disk.
func (r *Recorder) Flush() error {
	if r == nil || len(r.buffer) == 0 {
		return nil
	}
	var err error
	if !r.headerWritten {
		err = gocsv.Marshal(r.buffer, r.file)
		r.headerWritten = true
	} else {
		err = gocsv.MarshalWithoutHeaders(r.buffer, r.file)
	}
	r.buffer = r.buffer[:0]
	return err
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	if err := r.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
