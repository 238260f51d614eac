package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/storage"
)

// Series is one named curve sampled at the trajectory times.
type Series struct {
	Name   string
	Values []float64
}

var palette = []asciigraph.AnsiColor{
	asciigraph.Blue,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Magenta,
	asciigraph.Cyan,
}

// Plot draws every series on one chart.
func Plot(series []Series, caption string, width, height int) string {
	if len(series) == 0 {
		return ""
	}
	data := make([][]float64, len(series))
	names := make([]string, len(series))
	colors := make([]asciigraph.AnsiColor, len(series))
	for i, s := range series {
		data[i] = s.Values
		names[i] = s.Name
		colors[i] = palette[i%len(palette)]
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(names...),
	)
}

// TrajectorySeries returns the quantity of each labelled species in one
// cell, or summed over all cells when cell is negative. No labels selects
// every species.
func TrajectorySeries(tr *rdsys.Trajectory, labels []string, cell int) ([]Series, error) {
	if len(labels) == 0 {
		labels = tr.System.Network.SpeciesLabels()
	}
	out := make([]Series, 0, len(labels))
	for _, label := range labels {
		var (
			values []float64
			err    error
		)
		if cell < 0 {
			values, err = tr.Totals(label)
		} else {
			values, err = tr.SpeciesSeries(label, cell)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Series{Name: label, Values: values})
	}
	return out, nil
}

// SampleSeries is TrajectorySeries for stored samples, whose columns are
// named "species@cell".
func SampleSeries(s *storage.Samples, labels []string, cell int) ([]Series, error) {
	byLabel := make(map[string][]int)
	var order []string
	for j, col := range s.Columns {
		label, c, ok := strings.Cut(col, "@")
		if !ok {
			return nil, fmt.Errorf("malformed column %q", col)
		}
		if cell >= 0 && c != fmt.Sprint(cell) {
			continue
		}
		if _, seen := byLabel[label]; !seen {
			order = append(order, label)
		}
		byLabel[label] = append(byLabel[label], j)
	}
	if len(labels) == 0 {
		labels = order
	}

	out := make([]Series, 0, len(labels))
	for _, label := range labels {
		cols, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("no samples of species %q", label)
		}
		values := make([]float64, len(s.Rows))
		for k, row := range s.Rows {
			for _, j := range cols {
				values[k] += row[j]
			}
		}
		out = append(out, Series{Name: label, Values: values})
	}
	return out, nil
}
