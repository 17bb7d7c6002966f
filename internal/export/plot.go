// Package export writes trajectories to files for use outside the terminal.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/doesim/internal/dynamo"
)

var formats = map[string]bool{
	".png":  true,
	".svg":  true,
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
}

// Plot draws the selected channels against time and saves the figure.
// The format follows the file extension. Non-finite samples are dropped.
func Plot(path, title string, res *dynamo.Result, channels []int, names []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !formats[ext] {
		return fmt.Errorf("export: unsupported format %q", ext)
	}
	if res.Len() == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	lines := 0
	for i, ch := range channels {
		if ch < 0 || ch >= len(res.States[0]) {
			return fmt.Errorf("export: channel %d out of range", ch)
		}

		pts := make(plotter.XYs, 0, res.Len())
		for j, s := range res.States {
			v := s[ch]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: res.Times[j], Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)

		label := fmt.Sprintf("x%d", ch)
		if ch < len(names) {
			label = names[ch]
		}
		p.Legend.Add(label, line)
		lines++
	}
	if lines == 0 {
		return ErrNoData
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
