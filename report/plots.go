package report

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const defaultBins = 20

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// PlotHistograms writes one PNG per feature showing its distribution in
// before (left) and after (right). Features that are constant or have no
// finite values in either dataset are skipped.
func PlotHistograms(dir string, before, after dataframe.DataFrame, features []string, bins int) ([]string, error) {
	if bins <= 0 {
		bins = defaultBins
	}
	var written []string
	for _, name := range features {
		raw, err := dataset.FloatColumn("report.PlotHistograms", before, name)
		if err != nil {
			return written, err
		}
		transformed, err := dataset.FloatColumn("report.PlotHistograms", after, name)
		if err != nil {
			return written, err
		}
		left, right := finite(raw), finite(transformed)
		if !plottable(left) || !plottable(right) {
			log.GetLoggerWithName("report").Debug("Histogram skipped", log.ColumnKey, name)
			continue
		}

		p1, err := histogram(name+" (before)", left, bins)
		if err != nil {
			return written, err
		}
		p2, err := histogram(name+" (after)", right, bins)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, unsafeChars.ReplaceAllString(name, "_")+"_hist.png")
		if err := savePair(path, p1, p2); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func histogram(title string, values plotter.Values, bins int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, errors.Wrapf(err, "histogram %s", title)
	}
	p.Add(h)
	return p, nil
}

func savePair(path string, left, right *plot.Plot) error {
	img := vgimg.New(8*vg.Inch, 4*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align([][]*plot.Plot{{left, right}}, tiles, dc)
	left.Draw(canvases[0][0])
	right.Draw(canvases[0][1])

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

func finite(x []float64) plotter.Values {
	out := make(plotter.Values, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func plottable(v plotter.Values) bool {
	return len(v) > 0 && floats.Max(v) > floats.Min(v)
}

func itoa(i int) string { return strconv.Itoa(i) }
