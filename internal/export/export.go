// Package export serializes the current session view into a downloadable
// document. The dump is one-way: nothing in this client reads it back.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/grid"
)

// Document is a point-in-time snapshot of what the session was showing.
type Document struct {
	Timestamp   time.Time     `json:"timestamp"`
	Health      string        `json:"health"`
	Chemistry   chem.Snapshot `json:"chemistry"`
	SpatialGrid *grid.Data    `json:"spatialGrid,omitempty"`
}

// Write emits the document as indented JSON.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Save writes the document into dir under a timestamped name and returns the
// full path.
func Save(dir string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("hydrolab_%d.json", doc.Timestamp.Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Write(f, doc); err != nil {
		return "", err
	}
	return path, nil
}
