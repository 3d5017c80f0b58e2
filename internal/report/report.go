package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"orgstats/internal/config"
	"orgstats/internal/metrics"
)

// Renderer writes artifacts into the output directory. Each render
// overwrites its target file unconditionally.
type Renderer struct {
	dir string
	cfg *config.Config
}

// New creates a renderer writing into dir.
func New(dir string, cfg *config.Config) *Renderer {
	return &Renderer{dir: dir, cfg: cfg}
}

// WriteJSON pretty-prints v into the named file. Field order follows the
// struct tags, element order follows the slice, so re-rendering the same
// input is byte-identical.
func (r *Renderer) WriteJSON(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	return r.write(filename, append(data, '\n'))
}

func (r *Renderer) write(filename string, data []byte) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(r.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	metrics.ReportWritten()
	log.Printf("Results written to %s", path)
	return nil
}
