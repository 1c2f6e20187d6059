package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"HeatX/internal/calc/chart"
	"HeatX/internal/calc/exchanger"

	"github.com/phpdave11/gofpdf"
)

type Meta struct {
	Project string    `json:"project"`
	Author  string    `json:"author"`
	Title   string    `json:"title"`
	Notes   string    `json:"notes"`
	Date    time.Time `json:"date"`
}

const (
	pageWidth   = 190.0
	chartHeight = 60.0
)

// core PDF fonts are cp1252; ṁ and the dash have no glyph there
var glyphs = strings.NewReplacer("ṁ", "m", "—", "-")

var palette = map[string][3]int{
	"green":   {46, 125, 50},
	"blue":    {21, 101, 192},
	"red":     {198, 40, 40},
	"orange":  {239, 108, 0},
	"#36A2EB": {54, 162, 235},
	"#FF6384": {255, 99, 132},
}

func WritePDF(w io.Writer, meta Meta, out exchanger.Output) error {
	if meta.Title == "" {
		meta.Title = "Double Pipe Heat Exchanger Analysis"
	}
	if meta.Date.IsZero() {
		meta.Date = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(glyphs.Replace(s)) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, text(meta.Title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, text(fmt.Sprintf("Project: %s", meta.Project)))
	pdf.Ln(6)
	pdf.Cell(0, 6, text(fmt.Sprintf("Author: %s", meta.Author)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", meta.Date.Format("2006-01-02")))
	pdf.Ln(8)
	pdf.Cell(0, 6, text(fmt.Sprintf("Surface area: %g m²   Specific heat: %g J/(kg·°C)   Duty policy: %s",
		out.SurfaceAreaM2, out.SpecificHeat, out.Policy)))
	pdf.Ln(10)

	table := chart.BuildTable(out)
	pdf.SetFont("Helvetica", "B", 10)
	colW := pageWidth / float64(len(table.Header))
	for _, h := range table.Header {
		pdf.CellFormat(colW, 7, text(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range table.Rows {
		for _, cell := range row {
			pdf.CellFormat(colW, 6, text(cell), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.MultiCell(0, 6, text(table.Footer), "", "L", false)

	if len(out.Failures) > 0 {
		pdf.SetFont("Helvetica", "", 10)
		for _, f := range out.Failures {
			pdf.MultiCell(0, 5, text(fmt.Sprintf("Reading %d excluded (%s): %s", f.Index+1, f.Kind, f.Reason)), "", "L", false)
		}
	}
	if meta.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, text(meta.Notes), "", "L", false)
	}

	for _, c := range chart.Build(out) {
		_, pageH := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		if pdf.GetY()+chartHeight+20 > pageH-bottom {
			pdf.AddPage()
		}
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 6, text(c.Title))
		pdf.Ln(8)
		drawChart(pdf, text, c, pdf.GetX()+12, pdf.GetY(), pageWidth-12, chartHeight)
		pdf.SetY(pdf.GetY() + chartHeight + 8)
	}

	return pdf.Output(w)
}

func drawChart(pdf *gofpdf.Fpdf, text func(string) string, c chart.Chart, x, y, w, h float64) {
	xmin, xmax, ymin, ymax := bounds(c)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Line(x, y+h, x+w, y+h)
	pdf.Line(x, y, x, y+h)

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(x-11, y+3, fmt.Sprintf("%.4g", ymax))
	pdf.Text(x-11, y+h, fmt.Sprintf("%.4g", ymin))
	pdf.Text(x, y+h+4, fmt.Sprintf("%.4g", xmin))
	pdf.Text(x+w-8, y+h+4, fmt.Sprintf("%.4g", xmax))
	pdf.Text(x+w/2-10, y+h+4, text(c.XLabel))

	px := func(v float64) float64 { return x + (v-xmin)/(xmax-xmin)*w }
	py := func(v float64) float64 { return y + h - (v-ymin)/(ymax-ymin)*h }

	for si, s := range c.Series {
		rgb := palette[s.Color]
		pdf.SetDrawColor(rgb[0], rgb[1], rgb[2])
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		pdf.SetLineWidth(0.5)

		switch c.Kind {
		case chart.KindBar:
			n := float64(len(s.Points))
			slot := w / math.Max(n, 1)
			barW := slot / float64(len(c.Series)+1)
			for i, p := range s.Points {
				bx := x + float64(i)*slot + float64(si)*barW + barW/2
				top := py(p.Y)
				pdf.Rect(bx, top, barW, y+h-top, "F")
			}
		default:
			for i, p := range s.Points {
				pdf.Circle(px(p.X), py(p.Y), 0.8, "F")
				if i > 0 {
					prev := s.Points[i-1]
					pdf.Line(px(prev.X), py(prev.Y), px(p.X), py(p.Y))
				}
			}
		}
		pdf.Text(x+w-45, y+4+float64(si)*4, text(s.Label))
	}
	pdf.SetFillColor(255, 255, 255)
}

// bounds spans every point; the y axis always includes zero like the UI charts.
func bounds(c chart.Chart) (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		for _, p := range s.Points {
			xmin = math.Min(xmin, p.X)
			xmax = math.Max(xmax, p.X)
			ymin = math.Min(ymin, p.Y)
			ymax = math.Max(ymax, p.Y)
		}
	}
	if math.IsInf(xmin, 1) {
		xmin, xmax = 0, 1
	}
	if xmax == xmin {
		xmin, xmax = xmin-0.5, xmax+0.5
	}
	if ymax == ymin {
		ymax = ymin + 1
	}
	return xmin, xmax, ymin, ymax
}
