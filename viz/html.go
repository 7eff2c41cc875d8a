package viz

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const defaultMaxPointsPerScan = 20000

// HTMLSink renders all frames as a 3D scatter plot, one series per scan.
// The page is written to Path on Close.
type HTMLSink struct {
	Path  string
	Title string
	// MaxPointsPerScan limits the points plotted per scan by striding.
	MaxPointsPerScan int

	chart  *charts.Scatter3D
	frames int
	points int
}

func NewHTMLSink(path, title string) *HTMLSink {
	return &HTMLSink{Path: path, Title: title}
}

func (s *HTMLSink) init() {
	if s.chart != nil {
		return
	}
	s.chart = charts.NewScatter3D()
	s.chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: s.Title, Width: "1200px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: s.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
	)
}

func (s *HTMLSink) Emit(ctx context.Context, f Frame) error {
	s.init()

	maxPoints := s.MaxPointsPerScan
	if maxPoints <= 0 {
		maxPoints = defaultMaxPointsPerScan
	}
	stride := 1
	if len(f.Points) > maxPoints {
		stride = (len(f.Points) + maxPoints - 1) / maxPoints
	}

	data := make([]opts.Chart3DData, 0, len(f.Points)/stride+1)
	for i := 0; i < len(f.Points); i += stride {
		p := f.Points[i]
		data = append(data, opts.Chart3DData{Value: []interface{}{p[0], p[1], p[2]}})
	}
	s.chart.AddSeries(f.Scan.Name, data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: f.Color.Hex()}),
	)
	s.frames++
	s.points += len(data)
	return nil
}

// Render writes the page to w.
func (s *HTMLSink) Render(w io.Writer) error {
	s.init()
	s.chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    s.Title,
			Subtitle: fmt.Sprintf("scans=%d points=%d", s.frames, s.points),
		}),
	)
	return s.chart.Render(w)
}

func (s *HTMLSink) Close() error {
	if s.Path == "" {
		return nil
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	if err := s.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", s.Path, err)
	}
	return f.Close()
}
