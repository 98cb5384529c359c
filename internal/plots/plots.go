// Package plots renders the diagnostic plot products of an averaging run:
// survey-location overview, per-component avg/n/sd triptychs, mean-vector
// map, secondary-circulation overlay, the three-panel UVW array, and the
// flow summary (PNG via gonum/plot, plus an HTML flow report via
// go-echarts).
package plots

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/average"
)

// PNGPlotter implements average.Plotter, writing one PNG per product under
// Dir using the group name as file prefix. When Save is false every method
// is a no-op, matching the save-plots toggle.
type PNGPlotter struct {
	Dir  string
	Save bool

	// HTMLReport additionally writes an interactive flow report next to
	// the flow summary PNG.
	HTMLReport bool
}

// fieldGrid adapts one component plane of a Field to plotter.GridXYZ.
// Missing cells surface as NaN, which the heat map leaves undrawn.
type fieldGrid struct {
	f    *average.Field
	c    adcp.Component
	kind func(ix, iz int, c adcp.Component) float64
}

func (g fieldGrid) Dims() (int, int)   { return g.f.Grid.NX(), g.f.Grid.NZ() }
func (g fieldGrid) X(ix int) float64   { return g.f.Grid.Dist[ix] }
func (g fieldGrid) Y(iz int) float64   { return g.f.Grid.Elev[iz] }
func (g fieldGrid) Z(ix, iz int) float64 { return g.kind(ix, iz, g.c) }

func velocityGrid(f *average.Field, c adcp.Component) fieldGrid {
	return fieldGrid{f: f, c: c, kind: func(ix, iz int, c adcp.Component) float64 {
		return f.VelocityAt(ix, iz, c).Or(math.NaN())
	}}
}

func countGrid(f *average.Field, c adcp.Component) fieldGrid {
	return fieldGrid{f: f, c: c, kind: func(ix, iz int, c adcp.Component) float64 {
		return float64(f.CountAt(ix, iz, c))
	}}
}

func sdGrid(f *average.Field, c adcp.Component) fieldGrid {
	return fieldGrid{f: f, c: c, kind: func(ix, iz int, c adcp.Component) float64 {
		return f.SDAt(ix, iz, c).Or(math.NaN())
	}}
}

func heatPanel(title, xlabel, ylabel string, g plotter.GridXYZ) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewHeatMap(g, palette.Heat(12, 1)))
	return p
}

// savePanels stacks the given plots vertically into one PNG.
func savePanels(path string, panels []*plot.Plot) error {
	const panelW, panelH = 7 * vg.Inch, 3 * vg.Inch
	img := vgimg.New(panelW, panelH*vg.Length(len(panels)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(panels), Cols: 1,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	rows := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		rows[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(rows, tiles, dc)
	for i, p := range panels {
		p.Draw(canvases[i][0])
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// PlotGroupXY draws the ensemble track of every transect in the group.
func (pp *PNGPlotter) PlotGroupXY(name string, g *average.Group) error {
	if !pp.Save {
		return nil
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Source Observations", name)
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	for _, t := range g.Transects {
		pts := make(plotter.XYs, 0, len(t.Ensembles))
		for _, e := range t.Ensembles {
			pts = append(pts, plotter.XY{X: e.X, Y: e.Y})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(t.ID, line)
	}
	p.Legend.Top = true
	return p.Save(8*vg.Inch, 6*vg.Inch, filepath.Join(pp.Dir, name+"_xy_lines.png"))
}

// PlotAvgNSD writes the three-panel averaged-velocity / sample-count /
// standard-deviation image for one component.
func (pp *PNGPlotter) PlotAvgNSD(name string, f *average.Field, c adcp.Component) error {
	if !pp.Save {
		return nil
	}
	panels := []*plot.Plot{
		heatPanel(fmt.Sprintf("%s Averaged Velocity [m/s]", c), "m", "m", velocityGrid(f, c)),
		heatPanel("n Samples", "m", "m", countGrid(f, c)),
		heatPanel("Standard Deviation [m/s]", "m", "m", sdGrid(f, c)),
	}
	path := filepath.Join(pp.Dir, fmt.Sprintf("%s_%s_avg_n_sd.png", name, c))
	return savePanels(path, panels)
}

// PlotMeanVectors draws the depth-averaged U-V velocity of each column as
// an arrow anchored on the transect line in the x-y plane.
func (pp *PNGPlotter) PlotMeanVectors(name string, f *average.Field) error {
	if !pp.Save {
		return nil
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Mean Velocity [m/s]", name)
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	// Arrow scale: metres of plot distance per m/s.
	const scale = 10.0
	g := f.Grid
	for ix := 0; ix < g.NX(); ix++ {
		u, okU := f.DepthAveraged(ix, adcp.U).Float()
		v, okV := f.DepthAveraged(ix, adcp.V).Float()
		if !okU || !okV {
			continue
		}
		x := g.X0 + g.Dist[ix]*g.UX
		y := g.Y0 + g.Dist[ix]*g.UY
		seg, err := plotter.NewLine(plotter.XYs{
			{X: x, Y: y},
			{X: x + scale*u, Y: y + scale*v},
		})
		if err != nil {
			return err
		}
		seg.Width = vg.Points(1)
		p.Add(seg)
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, filepath.Join(pp.Dir, name+"_mean_velocity.png"))
}

// crossStreamField adapts the V-W plane of a Field to plotter.FieldXY.
// Missing cells carry a zero vector, which draws nothing visible.
type crossStreamField struct {
	f *average.Field
}

func (c crossStreamField) Dims() (int, int) { return c.f.Grid.NX(), c.f.Grid.NZ() }
func (c crossStreamField) X(ix int) float64 { return c.f.Grid.Dist[ix] }
func (c crossStreamField) Y(iz int) float64 { return c.f.Grid.Elev[iz] }
func (c crossStreamField) Vector(ix, iz int) plotter.XY {
	v, okV := c.f.VelocityAt(ix, iz, adcp.V).Float()
	w, okW := c.f.VelocityAt(ix, iz, adcp.W).Float()
	if !okV || !okW {
		return plotter.XY{}
	}
	return plotter.XY{X: v, Y: w}
}

// PlotSecondaryCirculation overlays cross-stream V-W vectors on the
// streamwise velocity image.
func (pp *PNGPlotter) PlotSecondaryCirculation(name string, f *average.Field) error {
	if !pp.Save {
		return nil
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Streamwise Velocity [m/s] and Cross-stream Vectors", name)
	p.X.Label.Text = "m"
	p.Y.Label.Text = "m"
	p.Add(plotter.NewHeatMap(velocityGrid(f, adcp.U), palette.Heat(12, 1)))
	p.Add(plotter.NewField(crossStreamField{f: f}))
	return p.Save(10*vg.Inch, 5*vg.Inch, filepath.Join(pp.Dir, name+"_secondary_circulation.png"))
}

// PlotUVWArray writes the three-panel U, V, W velocity image.
func (pp *PNGPlotter) PlotUVWArray(name string, f *average.Field) error {
	if !pp.Save {
		return nil
	}
	panels := make([]*plot.Plot, 0, adcp.NumComponents)
	for c := adcp.Component(0); c < adcp.NumComponents; c++ {
		panels = append(panels, heatPanel(
			fmt.Sprintf("%s Velocity [m/s]", c), "m", "m", velocityGrid(f, c)))
	}
	return savePanels(filepath.Join(pp.Dir, name+"_UVW_velocity.png"), panels)
}

// PlotFlowSummary writes the composite of the streamwise velocity image and
// the depth-averaged streamwise profile, with the grid-integrated discharge
// in the title. When HTMLReport is set an interactive version is written
// alongside.
func (pp *PNGPlotter) PlotFlowSummary(name string, f *average.Field) error {
	if !pp.Save {
		return nil
	}
	q := f.Discharge()

	top := heatPanel(
		fmt.Sprintf("%s Streamwise Summary, Q = %.1f m³/s", name, q),
		"m", "m", velocityGrid(f, adcp.U))

	profile := plot.New()
	profile.Title.Text = "Depth-averaged Streamwise Velocity"
	profile.X.Label.Text = "distance (m)"
	profile.Y.Label.Text = "u (m/s)"
	pts := make(plotter.XYs, 0, f.Grid.NX())
	for ix := 0; ix < f.Grid.NX(); ix++ {
		if u, ok := f.DepthAveraged(ix, adcp.U).Float(); ok {
			pts = append(pts, plotter.XY{X: f.Grid.Dist[ix], Y: u})
		}
	}
	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		profile.Add(line)
	}

	if err := savePanels(filepath.Join(pp.Dir, name+"_Flow_Summary.png"), []*plot.Plot{top, profile}); err != nil {
		return err
	}
	if pp.HTMLReport {
		return pp.writeFlowReport(name, f, q)
	}
	return nil
}
