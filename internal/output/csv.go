// Package output implements the file writers for averaged velocity
// products: a row-per-bin CSV exporter and a NetCDF classic gridded writer.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/average"
)

// CSVWriter writes one averaged field as a row-per-bin CSV file named
// <name>_velocity.csv under Dir. Missing samples are written as NaN, the
// convention downstream analysis tools already expect.
type CSVWriter struct {
	Dir      string
	NoHeader bool
}

var csvHeader = []string{
	"distance_m", "elevation_m",
	"u_mps", "v_mps", "w_mps",
	"n_u", "n_v", "n_w",
	"sd_u_mps", "sd_v_mps", "sd_w_mps",
}

// WriteTable implements average.TableWriter.
func (w *CSVWriter) WriteTable(name string, f *average.Field) error {
	path := filepath.Join(w.Dir, name+"_velocity.csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if !w.NoHeader {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}

	row := make([]string, len(csvHeader))
	for ix := 0; ix < f.Grid.NX(); ix++ {
		for iz := 0; iz < f.Grid.NZ(); iz++ {
			row[0] = fmt.Sprintf("%.3f", f.Grid.Dist[ix])
			row[1] = fmt.Sprintf("%.3f", f.Grid.Elev[iz])
			for c := adcp.Component(0); c < adcp.NumComponents; c++ {
				row[2+int(c)] = formatValue(f.VelocityAt(ix, iz, c))
				row[5+int(c)] = fmt.Sprintf("%d", f.CountAt(ix, iz, c))
				row[8+int(c)] = formatValue(f.SDAt(ix, iz, c))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatValue(v adcp.Value) string {
	x, ok := v.Float()
	if !ok {
		return "NaN"
	}
	return fmt.Sprintf("%.6f", x)
}
