package chart

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"os"
	"sort"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"finchat-backend/internal/models"
)

// Fixed style contract for every generated chart.
var (
	palette = []string{
		"#e60049", "#0bb4ff", "#50e991", "#e6d800", "#9b19f5",
		"#ffa300", "#dc0ab4", "#b3d4ff", "#00bfa0",
	}
	figureBackground = "#f4f4f8"
	plotBackground   = "#ffffff"
	titleColor       = "#000000"
	labelColor       = "#333333"
)

const (
	chartWidth  = 900
	chartHeight = 600
	marginLeft  = 90.0
	marginRight = 40.0
	marginTop   = 70.0
	marginBot   = 80.0
)

// Renderer draws validated chart specs to PNG bytes.
type Renderer struct {
	titleFace font.Face
	labelFace font.Face
}

// NewRenderer creates a renderer. fontPath may name a TTF file; when empty
// or unreadable the drawing context's built-in face is used.
func NewRenderer(fontPath string) *Renderer {
	r := &Renderer{}
	if fontPath == "" {
		return r
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return r
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return r
	}
	r.titleFace = truetype.NewFace(parsed, &truetype.Options{Size: 20})
	r.labelFace = truetype.NewFace(parsed, &truetype.Options{Size: 13})
	return r
}

// Render draws the chart described by spec over the dataset and returns
// PNG bytes. The spec must already be validated.
func (r *Renderer) Render(spec *ChartSpec, ds *Dataset) ([]byte, error) {
	data, err := buildSeries(spec, ds)
	if err != nil {
		return nil, err
	}
	if len(data.categories) == 0 && len(data.points) == 0 {
		return nil, models.NewInputError("chart.render", "no data rows to plot")
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetHexColor(figureBackground)
	dc.Clear()

	if r.labelFace != nil {
		dc.SetFontFace(r.labelFace)
	}

	switch spec.ChartType {
	case ChartPie:
		r.drawPie(dc, data)
	case ChartScatter:
		r.drawPlotArea(dc)
		r.drawScatter(dc, data)
	case ChartLine:
		r.drawPlotArea(dc)
		r.drawLines(dc, data)
	default:
		r.drawPlotArea(dc)
		r.drawBars(dc, data)
	}

	if len(data.series) > 1 {
		r.drawLegend(dc, data)
	}
	r.drawTitle(dc, spec)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode chart PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// series holds one named run of values aligned to the shared categories.
type series struct {
	name   string
	values []float64
}

type point struct {
	x, y float64
}

type chartData struct {
	categories []string
	series     []series
	points     []point
	yLabel     string
	xLabel     string
}

// buildSeries aggregates dataset rows into plottable form.
func buildSeries(spec *ChartSpec, ds *Dataset) (*chartData, error) {
	data := &chartData{xLabel: spec.X, yLabel: spec.Y}
	if spec.Agg == AggCount {
		data.yLabel = "count"
	}

	if spec.ChartType == ChartScatter {
		for _, row := range ds.Rows {
			x, err := ds.Number(row, spec.X)
			if err != nil {
				continue
			}
			y, err := ds.Number(row, spec.Y)
			if err != nil {
				continue
			}
			data.points = append(data.points, point{x: x, y: y})
		}
		return data, nil
	}

	type acc struct {
		sum float64
		n   int
	}
	// groupKey "" is the single series of ungrouped charts.
	cells := make(map[string]map[string]*acc)
	var catOrder []string
	seenCat := make(map[string]bool)
	var groupOrder []string
	seenGroup := make(map[string]bool)

	for _, row := range ds.Rows {
		cat := ds.Value(row, spec.X)
		if cat == "" {
			continue
		}
		groupKey := ""
		if spec.GroupBy != "" {
			groupKey = ds.Value(row, spec.GroupBy)
		}

		if !seenCat[cat] {
			seenCat[cat] = true
			catOrder = append(catOrder, cat)
		}
		if !seenGroup[groupKey] {
			seenGroup[groupKey] = true
			groupOrder = append(groupOrder, groupKey)
		}

		y := 0.0
		if spec.Agg != AggCount {
			v, err := ds.Number(row, spec.Y)
			if err != nil {
				return nil, models.NewContractError("chart.render",
					fmt.Sprintf("non-numeric value in column %q", spec.Y))
			}
			y = v
		}

		if cells[groupKey] == nil {
			cells[groupKey] = make(map[string]*acc)
		}
		if cells[groupKey][cat] == nil {
			cells[groupKey][cat] = &acc{}
		}
		cells[groupKey][cat].sum += y
		cells[groupKey][cat].n++
	}

	if spec.GroupBy != "" {
		sort.Strings(groupOrder)
	}
	data.categories = catOrder
	for _, groupKey := range groupOrder {
		run := series{name: groupKey}
		for _, cat := range catOrder {
			cell := cells[groupKey][cat]
			v := 0.0
			if cell != nil {
				switch spec.Agg {
				case AggMean:
					v = cell.sum / float64(cell.n)
				case AggCount:
					v = float64(cell.n)
				default:
					v = cell.sum
				}
			}
			run.values = append(run.values, v)
		}
		data.series = append(data.series, run)
	}
	return data, nil
}

func (r *Renderer) drawPlotArea(dc *gg.Context) {
	dc.SetHexColor(plotBackground)
	dc.DrawRectangle(marginLeft, marginTop, plotWidth(), plotHeight())
	dc.Fill()
	dc.SetHexColor(labelColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(marginLeft, marginTop, plotWidth(), plotHeight())
	dc.Stroke()
}

func plotWidth() float64  { return chartWidth - marginLeft - marginRight }
func plotHeight() float64 { return chartHeight - marginTop - marginBot }

func (r *Renderer) drawTitle(dc *gg.Context, spec *ChartSpec) {
	title := spec.Title
	if title == "" {
		title = fmt.Sprintf("%s by %s", spec.Y, spec.X)
		if spec.Agg == AggCount {
			title = fmt.Sprintf("count by %s", spec.X)
		}
	}
	if r.titleFace != nil {
		dc.SetFontFace(r.titleFace)
	}
	dc.SetHexColor(titleColor)
	dc.DrawStringAnchored(title, chartWidth/2, marginTop/2, 0.5, 0.5)
	if r.labelFace != nil {
		dc.SetFontFace(r.labelFace)
	}
}

// valueRange returns [0,max] padded; bars and lines are anchored at zero.
func valueRange(data *chartData) (float64, float64) {
	maxV := 0.0
	minV := 0.0
	for _, run := range data.series {
		for _, v := range run.values {
			if v > maxV {
				maxV = v
			}
			if v < minV {
				minV = v
			}
		}
	}
	if maxV == minV {
		maxV = minV + 1
	}
	pad := (maxV - minV) * 0.1
	return minV, maxV + pad
}

func (r *Renderer) drawYAxis(dc *gg.Context, minV, maxV float64) {
	dc.SetHexColor(labelColor)
	ticks := 5
	for i := 0; i <= ticks; i++ {
		v := minV + (maxV-minV)*float64(i)/float64(ticks)
		y := marginTop + plotHeight() - plotHeight()*float64(i)/float64(ticks)
		dc.DrawStringAnchored(formatTick(v), marginLeft-8, y, 1, 0.5)
		dc.SetLineWidth(0.5)
		dc.DrawLine(marginLeft, y, marginLeft+plotWidth(), y)
		dc.Stroke()
	}
}

func formatTick(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func (r *Renderer) drawBars(dc *gg.Context, data *chartData) {
	minV, maxV := valueRange(data)
	r.drawYAxis(dc, minV, maxV)

	nCat := len(data.categories)
	nSeries := len(data.series)
	slot := plotWidth() / float64(nCat)
	barWidth := slot * 0.7 / float64(nSeries)

	for si, run := range data.series {
		dc.SetHexColor(palette[si%len(palette)])
		for ci, v := range run.values {
			h := plotHeight() * (v - minV) / (maxV - minV)
			x := marginLeft + slot*float64(ci) + slot*0.15 + barWidth*float64(si)
			y := marginTop + plotHeight() - h
			dc.DrawRectangle(x, y, barWidth, h)
			dc.Fill()
		}
	}
	r.drawCategoryLabels(dc, data, slot)
}

func (r *Renderer) drawLines(dc *gg.Context, data *chartData) {
	minV, maxV := valueRange(data)
	r.drawYAxis(dc, minV, maxV)

	nCat := len(data.categories)
	slot := plotWidth() / float64(nCat)

	for si, run := range data.series {
		dc.SetHexColor(palette[si%len(palette)])
		dc.SetLineWidth(2)
		for ci, v := range run.values {
			x := marginLeft + slot*(float64(ci)+0.5)
			y := marginTop + plotHeight() - plotHeight()*(v-minV)/(maxV-minV)
			if ci == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
		for ci, v := range run.values {
			x := marginLeft + slot*(float64(ci)+0.5)
			y := marginTop + plotHeight() - plotHeight()*(v-minV)/(maxV-minV)
			dc.DrawCircle(x, y, 3)
			dc.Fill()
		}
	}
	r.drawCategoryLabels(dc, data, slot)
}

func (r *Renderer) drawScatter(dc *gg.Context, data *chartData) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range data.points {
		minX = math.Min(minX, p.x)
		maxX = math.Max(maxX, p.x)
		minY = math.Min(minY, p.y)
		maxY = math.Max(maxY, p.y)
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	r.drawYAxis(dc, minY, maxY)

	dc.SetHexColor(palette[0])
	for _, p := range data.points {
		x := marginLeft + plotWidth()*(p.x-minX)/(maxX-minX)
		y := marginTop + plotHeight() - plotHeight()*(p.y-minY)/(maxY-minY)
		dc.DrawCircle(x, y, 4)
		dc.Fill()
	}

	dc.SetHexColor(labelColor)
	dc.DrawStringAnchored(data.xLabel, marginLeft+plotWidth()/2, chartHeight-marginBot/2, 0.5, 0.5)
}

func (r *Renderer) drawPie(dc *gg.Context, data *chartData) {
	if len(data.series) == 0 {
		return
	}
	values := data.series[0].values
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return
	}

	cx := float64(chartWidth) / 2
	cy := marginTop + plotHeight()/2
	radius := math.Min(plotWidth(), plotHeight()) / 2.5

	angle := -math.Pi / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		sweep := 2 * math.Pi * v / total
		dc.SetHexColor(palette[i%len(palette)])
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.Fill()

		mid := angle + sweep/2
		lx := cx + math.Cos(mid)*(radius+30)
		ly := cy + math.Sin(mid)*(radius+30)
		dc.SetHexColor(labelColor)
		label := fmt.Sprintf("%s (%.1f%%)", data.categories[i], 100*v/total)
		dc.DrawStringAnchored(label, lx, ly, 0.5, 0.5)

		angle += sweep
	}
}

func (r *Renderer) drawCategoryLabels(dc *gg.Context, data *chartData, slot float64) {
	dc.SetHexColor(labelColor)
	for ci, cat := range data.categories {
		x := marginLeft + slot*(float64(ci)+0.5)
		y := marginTop + plotHeight() + 18
		dc.DrawStringAnchored(truncateLabel(cat), x, y, 0.5, 0.5)
	}
	dc.DrawStringAnchored(data.xLabel, marginLeft+plotWidth()/2, chartHeight-marginBot/2+10, 0.5, 0.5)
}

func truncateLabel(s string) string {
	if len(s) > 14 {
		return s[:12] + ".."
	}
	return s
}

func (r *Renderer) drawLegend(dc *gg.Context, data *chartData) {
	entryH := 20.0
	boxW := 160.0
	boxH := entryH*float64(len(data.series)) + 12
	x := chartWidth - marginRight - boxW - 8
	y := marginTop + 8

	dc.SetHexColor("#ffffff")
	dc.DrawRectangle(x, y, boxW, boxH)
	dc.Fill()
	dc.SetHexColor("#000000")
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, boxW, boxH)
	dc.Stroke()

	for i, run := range data.series {
		ey := y + 10 + entryH*float64(i)
		dc.SetHexColor(palette[i%len(palette)])
		dc.DrawRectangle(x+8, ey, 12, 12)
		dc.Fill()
		dc.SetHexColor(labelColor)
		dc.DrawStringAnchored(truncateLabel(run.name), x+26, ey+6, 0, 0.5)
	}
}
