package adcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Wire format for preprocessed transect files. One JSON document per
// transect; velocity entries are [u, v, w] with null marking a missing
// component sample.
type transectJSON struct {
	ID        string         `json:"id"`
	Ensembles []ensembleJSON `json:"ensembles"`
}

type ensembleJSON struct {
	TimeUnixNanos int64        `json:"time_unix_nanos"`
	X             float64      `json:"x"`
	Y             float64      `json:"y"`
	BinElevation  []float64    `json:"bin_elevation"`
	Velocity      [][]*float64 `json:"velocity"`
}

// LoadTransect reads one preprocessed transect JSON file.
func LoadTransect(path string) (*Transect, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tj transectJSON
	if err := json.Unmarshal(raw, &tj); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if tj.ID == "" {
		base := filepath.Base(path)
		tj.ID = base[:len(base)-len(filepath.Ext(base))]
	}

	t := &Transect{ID: tj.ID, Ensembles: make([]Ensemble, 0, len(tj.Ensembles))}
	for i, ej := range tj.Ensembles {
		e := Ensemble{
			Time:         time.Unix(0, ej.TimeUnixNanos),
			X:            ej.X,
			Y:            ej.Y,
			BinElevation: ej.BinElevation,
			Velocity:     make([][NumComponents]Value, len(ej.Velocity)),
		}
		for b, comps := range ej.Velocity {
			if len(comps) != NumComponents {
				return nil, fmt.Errorf("transect %q: ensemble %d bin %d has %d components, want %d",
					tj.ID, i, b, len(comps), NumComponents)
			}
			for c, p := range comps {
				if p != nil {
					e.Velocity[b][c] = Of(*p)
				}
			}
		}
		t.Ensembles = append(t.Ensembles, e)
	}
	return t, nil
}

// LoadDir reads every *.json transect file from dir, sorted by file name.
// A file that fails to parse aborts the load; partially loaded surveys make
// the downstream grouping silently wrong.
func LoadDir(dir string) ([]*Transect, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read transect dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	transects := make([]*Transect, 0, len(names))
	for _, name := range names {
		t, err := LoadTransect(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load transect: %w", err)
		}
		transects = append(transects, t)
	}
	return transects, nil
}
