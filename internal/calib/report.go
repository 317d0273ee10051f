package calib

import (
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/fiducial/internal/fsutil"
)

// Report file names written by WriteReport.
const (
	ReportPNG  = "reprojection.png"
	ReportHTML = "reprojection.html"
)

// ViewError pairs a view name with its RMS reprojection error.
type ViewError struct {
	Name string
	RMS  float64
}

// ViewErrors zips view names with per-view errors.
func ViewErrors(views []View, errs []float64) []ViewError {
	out := make([]ViewError, 0, len(errs))
	for i, e := range errs {
		if i >= len(views) {
			break
		}
		out = append(out, ViewError{Name: views[i].Name, RMS: e})
	}
	return out
}

// WriteReport renders per-view reprojection error as a PNG bar chart and an
// interactive HTML page in dir. It returns the paths written.
func WriteReport(fs fsutil.FileSystem, dir string, overallRMS float64, errs []ViewError) ([]string, error) {
	if len(errs) == 0 {
		return nil, ErrNoViews
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	pngPath := filepath.Join(dir, ReportPNG)
	if err := writeBarPNG(fs, pngPath, overallRMS, errs); err != nil {
		return nil, err
	}
	htmlPath := filepath.Join(dir, ReportHTML)
	if err := writeBarHTML(fs, htmlPath, overallRMS, errs); err != nil {
		return []string{pngPath}, err
	}
	return []string{pngPath, htmlPath}, nil
}

func writeBarPNG(fs fsutil.FileSystem, path string, overallRMS float64, errs []ViewError) error {
	values := make(plotter.Values, len(errs))
	names := make([]string, len(errs))
	for i, e := range errs {
		values[i] = e.RMS
		names[i] = e.Name
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Reprojection error per view (overall %.4f px)", overallRMS)
	p.Y.Label.Text = "RMS error (px)"
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -1

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("save plot: %w", err)
	}
	return w.Close()
}

func writeBarHTML(fs fsutil.FileSystem, path string, overallRMS float64, errs []ViewError) error {
	names := make([]string, len(errs))
	data := make([]opts.BarData, len(errs))
	for i, e := range errs {
		names[i] = e.Name
		data[i] = opts.BarData{Value: e.RMS}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Calibration Report", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Reprojection Error", Subtitle: fmt.Sprintf("views=%d rms=%.4f px", len(errs), overallRMS)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RMS (px)"}),
	)
	bar.SetXAxis(names).
		AddSeries("rms", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := bar.Render(w); err != nil {
		w.Close()
		return fmt.Errorf("render html: %w", err)
	}
	return w.Close()
}
