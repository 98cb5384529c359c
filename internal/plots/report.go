package plots

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/average"
)

// writeFlowReport renders the depth-averaged streamwise and cross-stream
// profiles as an interactive HTML chart next to the flow summary PNG.
func (pp *PNGPlotter) writeFlowReport(name string, f *average.Field, discharge float64) error {
	var dist []string
	var uData, vData []opts.LineData
	for ix := 0; ix < f.Grid.NX(); ix++ {
		u, okU := f.DepthAveraged(ix, adcp.U).Float()
		v, okV := f.DepthAveraged(ix, adcp.V).Float()
		if !okU && !okV {
			continue
		}
		dist = append(dist, fmt.Sprintf("%.1f", f.Grid.Dist[ix]))
		uData = append(uData, lineDatum(u, okU))
		vData = append(vData, lineDatum(v, okV))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name + " Flow Report", Width: "1100px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    name + " Depth-averaged Velocity",
			Subtitle: fmt.Sprintf("discharge Q = %.1f m³/s over %d × %d bins", discharge, f.Grid.NX(), f.Grid.NZ()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "velocity (m/s)"}),
	)
	line.SetXAxis(dist)
	line.AddSeries("streamwise u", uData)
	line.AddSeries("cross-stream v", vData)

	path := filepath.Join(pp.Dir, name+"_flow_report.html")
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// lineDatum maps a possibly-missing sample to an echarts point; missing
// values render as gaps.
func lineDatum(v float64, ok bool) opts.LineData {
	if !ok {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}
