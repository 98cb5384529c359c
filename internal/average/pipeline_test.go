package average

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/esatel/adcpy/internal/adcp"
)

// recordingSinks captures every output handoff for inspection.
type recordingSinks struct {
	mu       sync.Mutex
	grids    []string
	tables   []string
	plotted  map[string]int
	begun    bool
	groups   []GroupResult
	done     bool
	failGrid bool
}

func newRecordingSinks() *recordingSinks {
	return &recordingSinks{plotted: map[string]int{}}
}

func (r *recordingSinks) WriteGrid(name string, f *Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGrid {
		return fmt.Errorf("disk full")
	}
	r.grids = append(r.grids, name)
	return nil
}

func (r *recordingSinks) WriteTable(name string, f *Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, name)
	return nil
}

func (r *recordingSinks) plot(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plotted[kind]++
}

func (r *recordingSinks) PlotGroupXY(name string, g *Group) error { r.plot("xy"); return nil }
func (r *recordingSinks) PlotAvgNSD(name string, f *Field, c adcp.Component) error {
	r.plot("avg_n_sd")
	return nil
}
func (r *recordingSinks) PlotMeanVectors(name string, f *Field) error { r.plot("vectors"); return nil }
func (r *recordingSinks) PlotSecondaryCirculation(name string, f *Field) error {
	r.plot("secondary")
	return nil
}
func (r *recordingSinks) PlotUVWArray(name string, f *Field) error    { r.plot("uvw"); return nil }
func (r *recordingSinks) PlotFlowSummary(name string, f *Field) error { r.plot("flow"); return nil }

func (r *recordingSinks) BeginRun(startedAt time.Time, transectCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = true
	return nil
}

func (r *recordingSinks) RecordGroup(res GroupResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, res)
	return nil
}

func (r *recordingSinks) FinishRun(finishedAt time.Time, groupCount, failedGroups int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	return nil
}

func (r *recordingSinks) sinks() Sinks {
	return Sinks{Grid: r, Table: r, Plots: r, Recorder: r}
}

func surveyTransects() []*adcp.Transect {
	elevs := []float64{-0.5, -1.0, -1.5}
	return []*adcp.Transect{
		// Two adjacent passes over the same line.
		uniformTransect("a1", t0, spanXs(9, 100), 0, elevs, 0.5, 0.1, 0.01),
		uniformTransect("a2", t0.Add(5*time.Minute), spanXs(9, 100), 3, elevs, 0.45, 0.12, 0.0),
		// A separate survey two hours later.
		uniformTransect("b1", t0.Add(2*time.Hour), spanXs(9, 100), 0, elevs, 0.6, 0.05, 0.0),
	}
}

func TestPipelineRunsAllGroups(t *testing.T) {
	rec := newRecordingSinks()
	cfg := DefaultConfig().WithSmoothKernel(3)
	p, err := NewPipeline(cfg, nil, rec.sinks())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	summary, err := p.Run(surveyTransects())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Groups != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 groups, 0 failed", summary)
	}
	if len(rec.grids) != 2 || len(rec.tables) != 2 {
		t.Errorf("writes = %d grids, %d tables; want 2 each", len(rec.grids), len(rec.tables))
	}
	// Three avg/n/sd plots per group, one of everything else.
	if rec.plotted["avg_n_sd"] != 6 {
		t.Errorf("avg_n_sd plots = %d, want 6", rec.plotted["avg_n_sd"])
	}
	for _, kind := range []string{"xy", "vectors", "secondary", "uvw", "flow"} {
		if rec.plotted[kind] != 2 {
			t.Errorf("%s plots = %d, want 2", kind, rec.plotted[kind])
		}
	}
	if !rec.begun || !rec.done {
		t.Error("recorder lifecycle not driven")
	}
	if len(rec.groups) != 2 {
		t.Fatalf("recorded %d group results, want 2", len(rec.groups))
	}
	for _, g := range rec.groups {
		if g.CellsFilled == 0 || g.CellsTotal == 0 {
			t.Errorf("group %d has empty summary: %+v", g.Index, g)
		}
	}
}

func TestPipelineIsolatesGroupFailure(t *testing.T) {
	ts := surveyTransects()
	// A degenerate pass far from the others: all ensembles at one point.
	ts = append(ts, uniformTransect("dot", t0.Add(6*time.Hour), []float64{500, 500, 500}, 500, []float64{-1}, 0.5, 0, 0))

	rec := newRecordingSinks()
	p, err := NewPipeline(DefaultConfig(), nil, rec.sinks())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	summary, err := p.Run(ts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Groups != 3 {
		t.Fatalf("groups = %d, want 3", summary.Groups)
	}
	if summary.Failed != 1 {
		t.Fatalf("failed = %d, want exactly the degenerate group", summary.Failed)
	}
	if len(rec.grids) != 2 {
		t.Errorf("healthy groups written = %d, want 2", len(rec.grids))
	}
}

func TestPipelineOutputFailureDoesNotFailGroup(t *testing.T) {
	rec := newRecordingSinks()
	rec.failGrid = true
	p, err := NewPipeline(DefaultConfig(), nil, rec.sinks())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	summary, err := p.Run(surveyTransects())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 0 {
		t.Fatalf("output failure must not fail the group, got %d failures", summary.Failed)
	}
	if len(rec.tables) != 2 {
		t.Errorf("csv writes = %d, want 2 despite grid writer failing", len(rec.tables))
	}
}

func TestPipelineConcurrentWorkersMatchSequential(t *testing.T) {
	seq := newRecordingSinks()
	pSeq, _ := NewPipeline(DefaultConfig().WithWorkers(1), nil, seq.sinks())
	sumSeq, err := pSeq.Run(surveyTransects())
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}

	par := newRecordingSinks()
	pPar, _ := NewPipeline(DefaultConfig().WithWorkers(4), nil, par.sinks())
	sumPar, err := pPar.Run(surveyTransects())
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	if sumSeq.Groups != sumPar.Groups || sumSeq.Failed != sumPar.Failed {
		t.Fatalf("summaries diverge: %+v vs %+v", sumSeq, sumPar)
	}
	if len(seq.grids) != len(par.grids) {
		t.Fatalf("write counts diverge: %d vs %d", len(seq.grids), len(par.grids))
	}
}

func TestNewPipelineRejectsInvalidConfig(t *testing.T) {
	_, err := NewPipeline(DefaultConfig().WithResolution(-1, 0.25), nil, Sinks{})
	if err == nil {
		t.Fatal("invalid config must be rejected before any group is processed")
	}
}
