// Package report renders analysis results for a browser or a terminal.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/session"
)

// Chart geometry in SVG user units.
const (
	chartWidth     = 360
	chartHeight    = 240
	chartPlotTop   = 30
	chartPlotBase  = 210
	chartBarWidth  = 90
	chartBarOffset = 60
	chartBarGap    = 60
)

type bar struct {
	Label  string
	Value  float64
	Color  string
	X      int
	Y      float64
	Height float64
}

type chart struct {
	Title  string
	XAxis  string
	YAxis  string
	Width  int
	Height int
	Base   int
	Bars   []bar
}

func newChart(c impact.Comparison) chart {
	plot := float64(chartPlotBase - chartPlotTop)
	top := c.Max()

	out := chart{
		Title:  c.Title,
		XAxis:  c.XAxis,
		YAxis:  c.YAxis,
		Width:  chartWidth,
		Height: chartHeight,
		Base:   chartPlotBase,
	}
	for i := range c.Values {
		h := 0.0
		if top > 0 {
			h = c.Values[i] / top * plot
		}
		out.Bars = append(out.Bars, bar{
			Label:  c.Labels[i],
			Value:  c.Values[i],
			Color:  c.Colors[i],
			X:      chartBarOffset + i*(chartBarWidth+chartBarGap),
			Y:      float64(chartPlotBase) - h,
			Height: h,
		})
	}
	return out
}

type view struct {
	Result *analyzer.Result
	Chart  *chart
	Totals session.Analytics
}

// WriteHTML renders a self-contained HTML page with the model's answer, the energy comparison
// chart when metrics were found, the optimized code and the session's cumulative impact.
func WriteHTML(w io.Writer, res *analyzer.Result, totals session.Analytics) error {
	data := view{Result: res, Totals: totals}
	if res.Comparison != nil {
		c := newChart(*res.Comparison)
		data.Chart = &c
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteText writes a terminal summary of one analysis followed by the session totals.
func WriteText(w io.Writer, res *analyzer.Result, totals session.Analytics) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "🔍 Analyzing: %s\n\n", res.File)
	buf.WriteString(strings.TrimSpace(res.Raw))
	buf.WriteString("\n\n")

	if res.Comparison == nil {
		buf.WriteString("⚠️ Unable to extract metrics from analysis output.\n")
	} else {
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCENARIO\tENERGY (kWh)")
		fmt.Fprintln(tw, "--------\t------------")
		for i, label := range res.Comparison.Labels {
			fmt.Fprintf(tw, "%s\t%s\n", label, Humanize(res.Comparison.Values[i]))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(&buf, "\nCO2 reduction: %s kg/month\n", Humanize(res.CO2ReductionKg))
	}

	fmt.Fprintf(&buf, "\n🌍 Cumulative Impact\nTotal Energy Saved: %s kWh\nCO2 Reduction: %s kg\n",
		Humanize(totals.TotalEnergyKWH), Humanize(totals.TotalCO2Kg))

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteSession writes the session totals and history as a table.
func WriteSession(w io.Writer, totals session.Analytics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFILE\tSAVINGS (kWh)\tCO2 (kg)")
	fmt.Fprintln(tw, "----\t----\t-------------\t--------")
	for _, e := range totals.History {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.At.Format("2006-01-02 15:04"), e.File, Humanize(e.SavingsKWH), Humanize(e.CO2Kg))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\t%s\n", Humanize(totals.TotalEnergyKWH), Humanize(totals.TotalCO2Kg))
	return tw.Flush()
}

// Humanize formats v with one decimal and thousands separators, e.g. 12345.67 -> "12,345.7".
func Humanize(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

var tpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"humanize": Humanize,
}).Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>EcoCode Sentinel: {{.Result.File}}</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
pre{background:#f5f5f5;padding:10px;border-radius:6px;overflow-x:auto}
ul{margin:6px 0 14px;padding-left:20px}
.small{color:#555}
.warn{color:#b00}
</style>

<h1>🌱 EcoCode Sentinel</h1>
<p class="small">
File: {{.Result.File}} &nbsp;|&nbsp;
Model: {{.Result.Model}}
</p>

<h2>🔍 Analysis</h2>
<pre>{{.Result.Raw}}</pre>

{{with .Chart}}
<h2>{{.Title}}</h2>
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" role="img" aria-label="{{.Title}}">
  <line x1="40" y1="{{.Base}}" x2="{{.Width}}" y2="{{.Base}}" stroke="#999"/>
  <text x="10" y="20" font-size="12">{{.YAxis}}</text>
  {{range .Bars}}
  <rect x="{{.X}}" y="{{printf "%.2f" .Y}}" width="90" height="{{printf "%.2f" .Height}}" fill="{{.Color}}"/>
  <text x="{{.X}}" y="{{printf "%.2f" .Y}}" dy="-4" font-size="12">{{humanize .Value}}</text>
  <text x="{{.X}}" y="{{$.Chart.Base}}" dy="16" font-size="12">{{.Label}}</text>
  {{end}}
  <text x="{{.Width}}" y="{{.Height}}" text-anchor="end" font-size="12">{{.XAxis}}</text>
</svg>
<p>CO2 reduction: {{humanize $.Result.CO2ReductionKg}} kg/month</p>
{{else}}
<p class="warn">⚠️ Unable to extract metrics from analysis output.</p>
{{end}}

<h2>Optimized Code</h2>
<pre><code>{{.Result.OptimizedCode}}</code></pre>

<h2>🌍 Cumulative Impact</h2>
<ul>
<li>Total Energy Saved: {{humanize .Totals.TotalEnergyKWH}} kWh</li>
<li>CO2 Reduction: {{humanize .Totals.TotalCO2Kg}} kg</li>
</ul>
{{if .Totals.History}}
<ul>
{{range .Totals.History}}
  <li>{{.At.Format "2006-01-02 15:04"}} {{.File}}: {{humanize .SavingsKWH}} kWh</li>
{{end}}
</ul>
{{end}}
</html>`))
