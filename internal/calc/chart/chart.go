// Package chart projects exchanger output onto the table and plot series
// shown by the UI and the PDF report. It only formats; nothing is recomputed.
package chart

import (
	"fmt"
	"strconv"

	"HeatX/internal/calc/exchanger"
)

const (
	KindLine = "line"
	KindBar  = "bar"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Series struct {
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

type Chart struct {
	Title  string   `json:"title"`
	Kind   string   `json:"kind"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series"`
}

type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Footer string     `json:"footer"`
}

const massFlowLabel = "ṁ (kg/s)"

func Build(out exchanger.Output) []Chart {
	line := func(title, label, color string, y func(exchanger.Result) float64) Chart {
		return Chart{
			Title:  title,
			Kind:   KindLine,
			XLabel: massFlowLabel,
			YLabel: label,
			Series: []Series{{Label: label, Color: color, Points: points(out.Results, y)}},
		}
	}

	return []Chart{
		line("Q vs ṁ", "Q (kW)", "green", func(r exchanger.Result) float64 { return r.HeatDuty / 1000 }),
		line("LMTD vs ṁ", "LMTD (°C)", "blue", func(r exchanger.Result) float64 { return r.LMTD }),
		line("U vs ṁ", "U (W/m²°C)", "red", func(r exchanger.Result) float64 { return r.OverallCoefficient }),
		line("Effectiveness vs ṁ", "Effectiveness", "orange", func(r exchanger.Result) float64 { return r.Effectiveness }),
		{
			Title:  "Q Hot vs Q Cold",
			Kind:   KindBar,
			XLabel: massFlowLabel,
			YLabel: "Q Comparison",
			Series: []Series{
				{Label: "Qh (kW)", Color: "#36A2EB", Points: points(out.Results, func(r exchanger.Result) float64 { return r.HotDuty / 1000 })},
				{Label: "Qc (kW)", Color: "#FF6384", Points: points(out.Results, func(r exchanger.Result) float64 { return r.ColdDuty / 1000 })},
			},
		},
	}
}

func points(results []exchanger.Result, y func(exchanger.Result) float64) []Point {
	pts := make([]Point, 0, len(results))
	for _, r := range results {
		pts = append(pts, Point{X: r.HotMassFlow, Y: y(r)})
	}
	return pts
}

// BuildTable lays results out in input order; failed readings keep their row
// and show the failure reason instead of numbers.
func BuildTable(out exchanger.Output) Table {
	t := Table{
		Header: []string{massFlowLabel, "Q (W)", "U (W/m²°C)", "LMTD (°C)", "Effectiveness"},
		Footer: fmt.Sprintf("Average heat exchanger efficiency: %s%%", out.Aggregate.Percent),
	}
	if out.Aggregate.Excluded > 0 {
		t.Footer += fmt.Sprintf(" (%d reading(s) excluded)", out.Aggregate.Excluded)
	}

	byIndex := make(map[int]exchanger.Result, len(out.Results))
	for _, r := range out.Results {
		byIndex[r.Index] = r
	}
	failed := make(map[int]exchanger.Failure, len(out.Failures))
	for _, f := range out.Failures {
		failed[f.Index] = f
	}

	n := len(out.Readings)
	if n == 0 {
		n = len(out.Results) + len(out.Failures)
	}
	for i := 0; i < n; i++ {
		if r, ok := byIndex[i]; ok {
			t.Rows = append(t.Rows, []string{
				formatFlow(r.HotMassFlow),
				fmt.Sprintf("%.2f", r.HeatDuty),
				fmt.Sprintf("%.2f", r.OverallCoefficient),
				fmt.Sprintf("%.2f", r.LMTD),
				fmt.Sprintf("%.3f", r.Effectiveness),
			})
			continue
		}
		flow := ""
		if i < len(out.Readings) {
			hot, _ := out.Readings[i].Flows()
			flow = formatFlow(hot)
		}
		reason := "failed"
		if f, ok := failed[i]; ok {
			reason = f.Reason
		}
		t.Rows = append(t.Rows, []string{flow, "—", "—", "—", reason})
	}
	return t
}

func formatFlow(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
