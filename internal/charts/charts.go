// Package charts renders draw-probability charts as standalone HTML pages.
package charts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/probability"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no chart data")

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string
	Subtitle   string
	YAxisLabel string
	Width      string // e.g. "900px"
	Height     string
	Theme      string
	ShowLegend bool
	ShowLabels bool
	Colors     []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		YAxisLabel: "Probability (%)",
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		ShowLabels: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// DataPoint represents a single bar.
type DataPoint struct {
	Label string
	Value float64
}

// Category is a named draw distribution.
type Category struct {
	Name         string
	Distribution probability.Distribution
}

var bucketNames = [4]string{"0 copies", "1 copy", "2 copies", "3+ copies"}

// RenderDistribution writes a grouped bar chart with one group per category
// and one bar per copies-drawn bucket, in percent.
func RenderDistribution(w io.Writer, categories []Category, config ChartConfig) error {
	if len(categories) == 0 {
		return ErrNoData
	}
	config = withDefaults(config)

	bar := newBar(config)
	labels := make([]string, len(categories))
	for i, c := range categories {
		labels[i] = fmt.Sprintf("%s (%d)", c.Name, c.Distribution.CountInDeck)
	}
	bar.SetXAxis(labels)

	for b, name := range bucketNames {
		data := make([]opts.BarData, len(categories))
		for i, c := range categories {
			data[i] = opts.BarData{Value: round2(c.Distribution.Percentages()[b])}
		}
		bar.AddSeries(name, data, charts.WithItemStyleOpts(opts.ItemStyle{
			Color: config.Colors[b%len(config.Colors)],
		}))
	}
	bar.SetSeriesOptions(labelOpts(config))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderBarChart writes a single-series bar chart, e.g. combo probabilities.
func RenderBarChart(w io.Writer, seriesName string, data []DataPoint, config ChartConfig) error {
	if len(data) == 0 {
		return ErrNoData
	}
	config = withDefaults(config)

	bar := newBar(config)
	labels := make([]string, len(data))
	values := make([]opts.BarData, len(data))
	for i, p := range data {
		labels[i] = p.Label
		values[i] = opts.BarData{Value: round2(p.Value)}
	}
	bar.SetXAxis(labels).
		AddSeries(seriesName, values, charts.WithItemStyleOpts(opts.ItemStyle{
			Color: config.Colors[0],
		})).
		SetSeriesOptions(labelOpts(config))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderToFile renders with render into a new file at path.
func RenderToFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func newBar(config ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: config.YAxisLabel,
			Min:  0,
			Max:  100,
		}),
	)
	return bar
}

func labelOpts(config ChartConfig) charts.SeriesOpts {
	return charts.WithLabelOpts(opts.Label{
		Show:     opts.Bool(config.ShowLabels),
		Position: "top",
	})
}

func withDefaults(config ChartConfig) ChartConfig {
	def := DefaultChartConfig()
	if config.Width == "" {
		config.Width = def.Width
	}
	if config.Height == "" {
		config.Height = def.Height
	}
	if config.Theme == "" {
		config.Theme = def.Theme
	}
	if len(config.Colors) == 0 {
		config.Colors = def.Colors
	}
	return config
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
