// Package visualize renders the barcode count report and runs NanoPlot.
package visualize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gmaffy/nanoflow/barcode"
	"github.com/gmaffy/nanoflow/counting"
	"github.com/gmaffy/nanoflow/files"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

const ReportName = "barcode_counts.html"

type Options struct {
	Input      string
	Save       string
	CountsFile string
	Bin        string
}

// Description summarizes a counts table. Barcode figures exclude every
// unclassified key.
type Description struct {
	Barcodes     int
	Unclassified int
	Mean         float64
	Median       float64
}

func isUnclassified(key string) bool {
	return strings.HasPrefix(key, "unclassified")
}

func Describe(s *counting.Summary) Description {
	var d Description
	keys := s.Keys()
	for _, k := range lo.Filter(keys, func(k string, _ int) bool { return isUnclassified(k) }) {
		d.Unclassified += s.Counts[k]
	}
	classified := lo.Filter(keys, func(k string, _ int) bool { return !isUnclassified(k) })
	d.Barcodes = len(classified)
	if d.Barcodes == 0 {
		return d
	}

	values := lo.Map(classified, func(k string, _ int) float64 { return float64(s.Counts[k]) })
	d.Mean = stat.Mean(values, nil)
	sort.Float64s(values)
	d.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	return d
}

// Chart builds the reads-per-barcode bar chart.
func Chart(s *counting.Summary) *charts.Bar {
	d := Describe(s)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title: "Reads per barcode",
			Subtitle: fmt.Sprintf("Unclassified Reads: %d | Average reads (excluding unclassified): %.0f",
				d.Unclassified, d.Mean),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Barcode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Reads in barcode"}),
	)

	keys := s.Keys()
	data := make([]opts.BarData, len(keys))
	for i, k := range keys {
		data[i] = opts.BarData{Name: k, Value: s.Counts[k]}
	}
	bar.SetXAxis(keys).AddSeries("reads", data)
	return bar
}

// RenderCounts writes the chart page to path.
func RenderCounts(s *counting.Summary, path string) error {
	if _, err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.AddCharts(Chart(s))
	if err := page.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// NanoPlot runs NanoPlot once per read file into Save/<key>.
func NanoPlot(ctx context.Context, s *tools.Session, o Options) (int, error) {
	paths, err := files.Sorted(o.Input, nil)
	if err != nil {
		return 0, err
	}
	reg := barcode.NewRegistry()
	tick := s.Tick(len(paths), "NanoPlot")
	done := 0
	for _, path := range paths {
		tick()
		key := strings.TrimSuffix(filepath.Base(path), files.FormatExt(path))
		if k, err := reg.ResolveUnder(o.Input, path); err == nil {
			key = k.String()
		}
		outDir := filepath.Join(o.Save, key)
		inv := s.Invoker.Invoke(ctx, tools.NanoPlot{Bin: o.Bin, Input: path, Output: outDir}, path, outDir)
		if s.Report.Record(inv) {
			done++
		} else if inv.Outcome == tools.Cancelled {
			return done, ctx.Err()
		}
	}
	return done, nil
}

// Run renders the counts report when a counts table exists, then plots every
// read file.
func Run(ctx context.Context, s *tools.Session, o Options) error {
	if o.CountsFile != "" {
		if _, err := os.Stat(o.CountsFile); err == nil {
			summary, err := counting.ReadCSV(o.CountsFile)
			if err != nil {
				return err
			}
			report := filepath.Join(o.Save, ReportName)
			if err := RenderCounts(summary, report); err != nil {
				return fmt.Errorf("rendering %s: %w", report, err)
			}
			s.Logf("Rendered %s from %s", report, o.CountsFile)
		} else {
			s.Logf("No counts table at %s, skipping chart", o.CountsFile)
		}
	}
	_, err := NanoPlot(ctx, s, o)
	return err
}
