// Package report renders the catalog dashboard as a self-contained HTML page
// using go-echarts: a pricing scatter (own price vs competitor price, colored
// by sales volume) and a bar chart of sales volume percentiles.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/synapse-data/product.intel/internal/db"
)

var percentiles = []float64{0.10, 0.25, 0.50, 0.75, 0.90}

// Render writes the dashboard HTML for the given product snapshots.
func Render(w io.Writer, products []db.ProductSnapshot) error {
	if len(products) == 0 {
		return fmt.Errorf("no products to report on")
	}

	page := components.NewPage()
	page.PageTitle = "Product Intelligence Dashboard"
	page.AddCharts(pricingScatter(products), volumePercentileBar(products))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render dashboard: %v", err)
	}
	return nil
}

// pricingScatter plots own price against competitor price, coloring points by
// sales volume so over- and under-priced high movers stand out.
func pricingScatter(products []db.ProductSnapshot) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(products))
	maxPrice := 0.0
	maxVolume := 0.0
	for _, p := range products {
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
		if p.CompetitorPrice > maxPrice {
			maxPrice = p.CompetitorPrice
		}
		if p.SalesVolume > maxVolume {
			maxVolume = p.SalesVolume
		}
		data = append(data, opts.ScatterData{
			Name:  fmt.Sprintf("product %d", p.ProductID),
			Value: []interface{}{p.Price, p.CompetitorPrice, p.SalesVolume},
		})
	}

	pad := maxPrice * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxVolume == 0 {
		maxVolume = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Price vs Competitor Price",
			Subtitle: fmt.Sprintf("products=%d (color = sales volume)", len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: pad, Name: "Price", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: pad, Name: "Competitor Price", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVolume),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("products", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// volumePercentileBar charts sales volume percentiles across the catalog.
func volumePercentileBar(products []db.ProductSnapshot) *charts.Bar {
	volumes := make([]float64, 0, len(products))
	for _, p := range products {
		if !math.IsNaN(p.SalesVolume) {
			volumes = append(volumes, p.SalesVolume)
		}
	}
	sort.Float64s(volumes)

	x := make([]string, 0, len(percentiles))
	y := make([]opts.BarData, 0, len(percentiles))
	for _, p := range percentiles {
		q := 0.0
		if len(volumes) > 0 {
			q = stat.Quantile(p, stat.Empirical, volumes, nil)
		}
		x = append(x, fmt.Sprintf("p%02.0f", p*100))
		y = append(y, opts.BarData{Value: q})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sales Volume Percentiles", Subtitle: fmt.Sprintf("n=%d", len(volumes))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("sales volume", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}
