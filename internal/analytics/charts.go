package analytics

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartConfig holds rendering options for the HTML chart output.
type ChartConfig struct {
	Title    string
	Subtitle string
	Width    string
	Height   string
	Theme    string
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig(title string) ChartConfig {
	return ChartConfig{
		Title:  title,
		Width:  "900px",
		Height: "500px",
		Theme:  "dark",
	}
}

var curveLabels = []string{"0", "1", "2", "3", "4", "5", "6", "7+"}

// RenderManaCurve writes an HTML bar chart of the mana curve to w.
func RenderManaCurve(w io.Writer, curve [CurveBuckets]int, config ChartConfig) error {
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
		charts.WithColorsOpts(opts.Colors{"#5470c6"}),
	)

	data := make([]opts.BarData, CurveBuckets)
	for i, n := range curve {
		data[i] = opts.BarData{Value: n}
	}

	bar.SetXAxis(curveLabels).
		AddSeries("Cards", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "top",
		}))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render mana curve chart: %w", err)
	}
	return nil
}

// RenderManaCurveChart writes an HTML bar chart of the mana curve to
// outputPath.
func RenderManaCurveChart(curve [CurveBuckets]int, config ChartConfig, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return RenderManaCurve(f, curve, config)
}

// RenderTypeDistribution writes an HTML pie chart of the primary type
// distribution to w.
func RenderTypeDistribution(w io.Writer, dist []TypeCount, config ChartConfig) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
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
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Orient: "vertical",
			Left:   "left",
		}),
	)

	data := make([]opts.PieData, len(dist))
	for i, tc := range dist {
		data[i] = opts.PieData{Name: tc.Type, Value: tc.Count}
	}

	pie.AddSeries("Types", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Formatter: "{b}: {c}",
		}))

	if err := pie.Render(w); err != nil {
		return fmt.Errorf("failed to render type distribution chart: %w", err)
	}
	return nil
}

// RenderTypeDistributionChart writes an HTML pie chart of the primary
// type distribution to outputPath.
func RenderTypeDistributionChart(dist []TypeCount, config ChartConfig, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return RenderTypeDistribution(f, dist, config)
}
