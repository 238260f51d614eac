// Package storage persists trajectories: a directory-per-run file store and
// a SQLite store share the Store interface.
package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/units"
)

var (
	ErrRunNotFound = fmt.Errorf("%w: run not found", dynamo.ErrValidation)
	ErrUnknownKind = fmt.Errorf("%w: unknown store kind", dynamo.ErrConfiguration)
)

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Engine     string             `json:"engine"`
	Option     string             `json:"option"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Species    []string           `json:"species"`
	Cells      int                `json:"cells"`
	Samples    int                `json:"samples"`
	Units      units.System       `json:"units"`
	Incomplete bool               `json:"incomplete"`
	IndexMap   []int              `json:"index_map,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Samples is a stored trajectory in tabular form: one row per sample, one
// column per species and cell.
type Samples struct {
	T       []float64
	Columns []string
	Rows    [][]float64
}

type Store interface {
	Save(name string, tr *rdsys.Trajectory, metrics map[string]float64) (string, error)
	List() ([]RunMetadata, error)
	Load(id string) (*RunMetadata, error)
	LoadSamples(id string) (*Samples, error)
	Close() error
}

// Open returns the store of the given kind ("file" or "sqlite") rooted at
// dir.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case "", "file":
		s := NewFileStore(dir)
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		return OpenSQLite(filepath.Join(dir, "runs.db"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func newMetadata(name string, tr *rdsys.Trajectory, metrics map[string]float64) RunMetadata {
	meta := RunMetadata{
		ID:         newRunID(name),
		Name:       name,
		Engine:     tr.Engine,
		Option:     tr.Option,
		Timestamp:  time.Now().UTC(),
		Species:    tr.System.Network.SpeciesLabels(),
		Cells:      tr.System.CellCount(),
		Samples:    tr.NSamples(),
		Units:      tr.Units,
		Incomplete: tr.Incomplete,
		IndexMap:   tr.IndexMap,
		Metrics:    metrics,
	}
	if tr.Script != nil {
		meta.Seed = tr.Script.Seed
	}
	return meta
}

func newRunID(name string) string {
	id := uuid.NewString()[:8]
	if name == "" {
		return id
	}
	return name + "_" + id
}

// columns names the state entries of a trajectory, "A@3" being species A in
// cell 3.
func columns(species []string, cells int) []string {
	out := make([]string, 0, len(species)*cells)
	for _, s := range species {
		for c := 0; c < cells; c++ {
			out = append(out, fmt.Sprintf("%s@%d", s, c))
		}
	}
	return out
}
