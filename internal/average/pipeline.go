package average

import (
	"fmt"
	"sync"
	"time"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/monitoring"
)

// GridWriter persists one group's gridded product (NetCDF or similar).
type GridWriter interface {
	WriteGrid(name string, f *Field) error
}

// TableWriter persists one group's product as a row-per-bin table (CSV).
type TableWriter interface {
	WriteTable(name string, f *Field) error
}

// Plotter renders the diagnostic plots for one group. Implementations own
// file naming below the group prefix and whether plots are saved or shown.
type Plotter interface {
	PlotGroupXY(name string, g *Group) error
	PlotAvgNSD(name string, f *Field, c adcp.Component) error
	PlotMeanVectors(name string, f *Field) error
	PlotSecondaryCirculation(name string, f *Field) error
	PlotUVWArray(name string, f *Field) error
	PlotFlowSummary(name string, f *Field) error
}

// GroupResult summarises one successfully averaged group for recording.
type GroupResult struct {
	Index         int
	TransectCount int
	Start, End    time.Time
	DistanceSpan  float64
	ElevationSpan float64
	CellsFilled   int
	CellsTotal    int
	Discharge     float64
}

// Recorder receives run bookkeeping (e.g. the sqlite run store). All
// methods are called from the orchestrator goroutine or under its
// serialisation, one run at a time.
type Recorder interface {
	BeginRun(startedAt time.Time, transectCount int) error
	RecordGroup(r GroupResult) error
	FinishRun(finishedAt time.Time, groupCount, failedGroups int) error
}

// Sinks bundles the external output collaborators. Any field may be nil;
// nil sinks and disabled config toggles both skip the product.
type Sinks struct {
	Grid     GridWriter
	Table    TableWriter
	Plots    Plotter
	Recorder Recorder
}

// Pipeline drives grouping, accumulation, refinement and output handoff for
// a whole survey. It owns no cross-group state: each group's grid and field
// live only while that group is processed.
type Pipeline struct {
	cfg   Config
	proj  Projector
	sinks Sinks
}

// NewPipeline validates cfg and builds a pipeline. proj may be nil to use
// the principal-axis projection.
func NewPipeline(cfg Config, proj Projector, sinks Sinks) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if proj == nil {
		proj = PrincipalAxisProjector{}
	}
	return &Pipeline{cfg: cfg, proj: proj, sinks: sinks}, nil
}

// RunSummary reports the outcome of one survey run.
type RunSummary struct {
	Transects int
	Excluded  []Excluded
	Groups    int
	Failed    int
}

// Run groups the transects and processes every group end to end. A failure
// inside one group (degenerate geometry, output error) is logged and that
// group is skipped; remaining groups continue. Groups are processed by a
// bounded worker pool of cfg.Workers goroutines; outputs per group carry a
// unique zero-padded name ("group000", ...) so workers share no mutable
// state.
func (p *Pipeline) Run(transects []*adcp.Transect) (*RunSummary, error) {
	monitoring.Logf("total transects loaded: %d", len(transects))

	groups, excluded := GroupBySpaceTime(transects, p.cfg.MaxGapMeters, p.cfg.MaxGapMin, p.cfg.MaxGroupSize)
	for _, ex := range excluded {
		monitoring.Logf("transect %s excluded from grouping: %v", ex.ID, ex.Err)
	}
	monitoring.Logf("total groups to average: %d", len(groups))

	startedAt := time.Now()
	var recMu sync.Mutex
	if p.sinks.Recorder != nil {
		if err := p.sinks.Recorder.BeginRun(startedAt, len(transects)); err != nil {
			return nil, fmt.Errorf("begin run record: %w", err)
		}
	}

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	failures := make([]bool, len(groups))
	for i, grp := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, grp *Group) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := p.processGroup(grp)
			if err != nil {
				monitoring.Logf("group %03d skipped: %v", grp.Index, err)
				failures[i] = true
				return
			}
			if p.sinks.Recorder != nil {
				recMu.Lock()
				err := p.sinks.Recorder.RecordGroup(*res)
				recMu.Unlock()
				if err != nil {
					monitoring.Logf("group %03d: record failed: %v", grp.Index, err)
				}
			}
		}(i, grp)
	}
	wg.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	if p.sinks.Recorder != nil {
		if err := p.sinks.Recorder.FinishRun(time.Now(), len(groups), failed); err != nil {
			monitoring.Logf("finish run record: %v", err)
		}
	}
	monitoring.Logf("ADCP processing complete: %d groups, %d failed", len(groups), failed)

	return &RunSummary{
		Transects: len(transects),
		Excluded:  excluded,
		Groups:    len(groups),
		Failed:    failed,
	}, nil
}

// processGroup runs one group through the full per-group pipeline:
// grid build, accumulation, rotation, sd dropping, smoothing, then output
// handoff under the group's unique name.
func (p *Pipeline) processGroup(grp *Group) (*GroupResult, error) {
	name := fmt.Sprintf("group%03d", grp.Index)

	if p.cfg.PlotXY && p.sinks.Plots != nil {
		if err := p.sinks.Plots.PlotGroupXY(name, grp); err != nil {
			monitoring.Logf("%s: xy plot failed: %v", name, err)
		}
	}

	grid, err := BuildGrid(grp, p.cfg.DXY, p.cfg.DZ, p.proj)
	if err != nil {
		return nil, err
	}
	field, err := Accumulate(grp, grid)
	if err != nil {
		return nil, err
	}

	if err := Rotate(field, p.cfg.Rotation); err != nil {
		return nil, err
	}
	if p.cfg.SDDrop > 0 {
		SDDrop(field, p.cfg.SDDrop, AxisElevation, p.cfg.InterpHoles)
		SDDrop(field, p.cfg.SDDrop, AxisEnsemble, p.cfg.InterpHoles)
	}
	if err := KernelSmooth(field, p.cfg.SmoothKernel); err != nil {
		return nil, err
	}

	// Output failures are reported but do not fail the group: a written
	// product is still valid when a later plot cannot be rendered.
	if p.cfg.SaveCSV && p.sinks.Table != nil {
		if err := p.sinks.Table.WriteTable(name, field); err != nil {
			monitoring.Logf("%s: csv write failed: %v", name, err)
		}
	}
	if p.cfg.SaveNetCDF && p.sinks.Grid != nil {
		if err := p.sinks.Grid.WriteGrid(name, field); err != nil {
			monitoring.Logf("%s: netcdf write failed: %v", name, err)
		}
	}
	if p.sinks.Plots != nil {
		if p.cfg.PlotAvgNSD {
			for c := adcp.Component(0); c < adcp.NumComponents; c++ {
				if err := p.sinks.Plots.PlotAvgNSD(name, field, c); err != nil {
					monitoring.Logf("%s: %s avg/n/sd plot failed: %v", name, c, err)
				}
			}
		}
		if p.cfg.PlotVectors {
			if err := p.sinks.Plots.PlotMeanVectors(name, field); err != nil {
				monitoring.Logf("%s: mean vector plot failed: %v", name, err)
			}
		}
		if p.cfg.PlotSecondary {
			if err := p.sinks.Plots.PlotSecondaryCirculation(name, field); err != nil {
				monitoring.Logf("%s: secondary circulation plot failed: %v", name, err)
			}
		}
		if p.cfg.PlotUVWArray {
			if err := p.sinks.Plots.PlotUVWArray(name, field); err != nil {
				monitoring.Logf("%s: UVW array plot failed: %v", name, err)
			}
		}
		if p.cfg.PlotFlowSummary {
			if err := p.sinks.Plots.PlotFlowSummary(name, field); err != nil {
				monitoring.Logf("%s: flow summary plot failed: %v", name, err)
			}
		}
	}

	return &GroupResult{
		Index:         grp.Index,
		TransectCount: len(grp.Transects),
		Start:         grp.Start(),
		End:           grp.End(),
		DistanceSpan:  float64(grid.NX()) * grid.DXY,
		ElevationSpan: float64(grid.NZ()) * grid.DZ,
		CellsFilled:   field.CellsFilled(),
		CellsTotal:    grid.NX() * grid.NZ(),
		Discharge:     field.Discharge(),
	}, nil
}
