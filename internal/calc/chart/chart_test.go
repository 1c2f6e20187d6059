package chart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"HeatX/internal/calc/exchanger"
)

func labOutput(t *testing.T) exchanger.Output {
	t.Helper()
	out, err := exchanger.Calculate(exchanger.Input{
		Readings: []exchanger.Reading{
			{MassFlow: 0.22, HotInletTemp: 78, HotOutletTemp: 65, ColdInletTemp: 29, ColdOutletTemp: 46},
			{MassFlow: 0.25, HotInletTemp: 20, HotOutletTemp: 18, ColdInletTemp: 30, ColdOutletTemp: 50},
			{MassFlow: 0.30, HotInletTemp: 90, HotOutletTemp: 75, ColdInletTemp: 35, ColdOutletTemp: 55},
		},
		Config: exchanger.Config{SurfaceAreaM2: 0.157},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return out
}

func TestBuild(t *testing.T) {
	charts := Build(labOutput(t))
	if len(charts) != 5 {
		t.Fatalf("charts: got %d, want 5", len(charts))
	}
	q := charts[0]
	if q.Kind != KindLine || len(q.Series) != 1 || len(q.Series[0].Points) != 2 {
		t.Fatalf("Q chart: %+v", q)
	}
	p := q.Series[0].Points[0]
	if p.X != 0.22 || p.Y < 11.97 || p.Y > 11.98 {
		t.Errorf("Q point: got %+v, want x=0.22 y≈11.972 kW", p)
	}
	bar := charts[4]
	if bar.Kind != KindBar || len(bar.Series) != 2 {
		t.Fatalf("bar chart: %+v", bar)
	}
}

func TestBuildTable(t *testing.T) {
	table := BuildTable(labOutput(t))
	if len(table.Rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(table.Rows))
	}
	want := []string{"0.22", "11971.96", "2245.37", "33.96", "0.265"}
	for i, cell := range want {
		if table.Rows[0][i] != cell {
			t.Errorf("row 0 col %d: got %q, want %q", i, table.Rows[0][i], cell)
		}
	}
	if table.Rows[1][0] != "0.25" || table.Rows[1][1] != "—" {
		t.Errorf("failed row: got %v", table.Rows[1])
	}
	if !strings.Contains(table.Footer, "1 reading(s) excluded") {
		t.Errorf("footer: got %q", table.Footer)
	}
}

func TestHandler_Render(t *testing.T) {
	h := &Handler{Calc: &exchanger.Handler{}}
	body := `{"surface_area_m2":0.157,"readings":[{"m":0.3,"th_in":90,"th_out":75,"tc_in":35,"tc_out":55}]}`
	w := httptest.NewRecorder()
	h.Render(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var v View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Charts) != 5 || len(v.Table.Rows) != 1 {
		t.Errorf("view: %d charts, %d rows", len(v.Charts), len(v.Table.Rows))
	}
}
