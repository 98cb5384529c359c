// Command transect-average groups repeated ADCP transect observations that
// match in space and time, bin-averages their velocity fields onto a common
// distance × elevation grid, and writes gridded products, CSV exports,
// diagnostic plots and a run record.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/average"
	"github.com/esatel/adcpy/internal/output"
	"github.com/esatel/adcpy/internal/plots"
	"github.com/esatel/adcpy/internal/storage/sqlite"
)

func main() {
	var (
		inputDir = flag.String("input", "", "directory of preprocessed transect JSON files (required)")
		outDir   = flag.String("out", "output", "directory for averaged products and plots")
		dbPath   = flag.String("db", "", "sqlite run database; empty disables run recording")

		dxy       = flag.Float64("dxy", 2.0, "horizontal bin resolution (m)")
		dz        = flag.Float64("dz", 0.25, "vertical bin resolution (m)")
		maxGapM   = flag.Float64("max-gap-m", 30.0, "max distance between averaged observations (m)")
		maxGapMin = flag.Float64("max-gap-min", 20.0, "max time between averaged observations (minutes)")
		maxGroup  = flag.Int("max-group", 6, "max observations averaged together")

		rotation    = flag.String("rotation", "Rozovski", "rotation mode: none, Rozovski, 'principal flow', 'no transverse flow', normal")
		sdDrop      = flag.Float64("sd-drop", 3.0, "drop samples deviating more than this many stddevs; 0 disables")
		interpHoles = flag.Bool("interp-holes", true, "interpolate holes left by sd dropping")
		smooth      = flag.Int("smooth", 5, "box-filter kernel side length (odd); 0 or 1 disables")
		workers     = flag.Int("workers", 1, "concurrent group workers")

		saveNetCDF  = flag.Bool("netcdf", true, "write NetCDF gridded product per group")
		saveCSV     = flag.Bool("csv", true, "write CSV velocity export per group")
		csvNoHeader = flag.Bool("csv-no-header", false, "omit the header row from CSV exports")
		plotXY      = flag.Bool("plot-xy", true, "plot survey locations per group")
		plotNSD     = flag.Bool("plot-avg-n-sd", true, "plot avg/n/sd triptych per component")
		plotVec     = flag.Bool("plot-vectors", true, "plot mean velocity vectors")
		plotSec     = flag.Bool("plot-secondary", true, "plot secondary circulation overlay")
		plotUVW     = flag.Bool("plot-uvw", true, "plot 3-panel UVW velocity array")
		plotFlow    = flag.Bool("plot-flow", true, "plot flow summary composite")
		savePlots   = flag.Bool("save-plots", true, "save plots to disk")
		htmlReport  = flag.Bool("html-report", false, "write interactive HTML flow report per group")
	)
	flag.Parse()

	if *inputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	mode, err := average.ParseRotationMode(*rotation)
	if err != nil {
		log.Fatalf("invalid -rotation: %v", err)
	}

	cfg := average.DefaultConfig().
		WithResolution(*dxy, *dz).
		WithGaps(*maxGapM, *maxGapMin).
		WithMaxGroupSize(*maxGroup).
		WithRotation(mode).
		WithSDDrop(*sdDrop, *interpHoles).
		WithSmoothKernel(*smooth).
		WithWorkers(*workers)
	cfg.SaveNetCDF = *saveNetCDF
	cfg.SaveCSV = *saveCSV
	cfg.PlotXY = *plotXY
	cfg.PlotAvgNSD = *plotNSD
	cfg.PlotVectors = *plotVec
	cfg.PlotSecondary = *plotSec
	cfg.PlotUVWArray = *plotUVW
	cfg.PlotFlowSummary = *plotFlow
	cfg.SavePlots = *savePlots
	cfg.ShowPlots = *htmlReport
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	transects, err := adcp.LoadDir(*inputDir)
	if err != nil {
		log.Fatalf("load transects: %v", err)
	}

	sinks := average.Sinks{
		Grid:  &output.NetCDFWriter{Dir: *outDir},
		Table: &output.CSVWriter{Dir: *outDir, NoHeader: *csvNoHeader},
		Plots: &plots.PNGPlotter{Dir: *outDir, Save: cfg.SavePlots, HTMLReport: cfg.ShowPlots},
	}
	if *dbPath != "" {
		store, err := sqlite.NewRunStore(*dbPath, *outDir)
		if err != nil {
			log.Fatalf("open run store: %v", err)
		}
		defer store.Close()
		sinks.Recorder = store
	}

	pipe, err := average.NewPipeline(cfg, nil, sinks)
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}
	summary, err := pipe.Run(transects)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	if summary.Failed > 0 {
		log.Printf("completed with %d of %d groups failed", summary.Failed, summary.Groups)
		os.Exit(1)
	}
}
