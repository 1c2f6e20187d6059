package rating

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	exchanger "HeatX/internal/calc/exchanger"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRate_RoundTripThroughEngine(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"balanced flows", Input{HotMassFlow: 0.22, ColdMassFlow: 0.22, HotInletTemp: 78, ColdInletTemp: 29, OverallCoefficient: 2245.37, SurfaceAreaM2: 0.157}},
		{"hot side larger", Input{HotMassFlow: 0.4, ColdMassFlow: 0.2, HotInletTemp: 80, ColdInletTemp: 20, OverallCoefficient: 1500, SurfaceAreaM2: 0.5}},
		{"cold side larger", Input{HotMassFlow: 0.1, ColdMassFlow: 0.3, HotInletTemp: 90, ColdInletTemp: 15, OverallCoefficient: 800, SurfaceAreaM2: 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Rate(tt.in)
			if err != nil {
				t.Fatalf("Rate: %v", err)
			}
			reading := exchanger.Reading{
				HotMassFlow:    tt.in.HotMassFlow,
				ColdMassFlow:   tt.in.ColdMassFlow,
				HotInletTemp:   tt.in.HotInletTemp,
				HotOutletTemp:  res.HotOutletTemp,
				ColdInletTemp:  tt.in.ColdInletTemp,
				ColdOutletTemp: res.ColdOutletTemp,
			}
			got, err := exchanger.ComputeReading(0, reading, exchanger.Config{
				SurfaceAreaM2: tt.in.SurfaceAreaM2,
				SpecificHeat:  exchanger.DefaultSpecificHeat,
				Policy:        exchanger.PolicyMin,
			})
			if err != nil {
				t.Fatalf("ComputeReading: %v", err)
			}
			if !almostEqual(got.OverallCoefficient, tt.in.OverallCoefficient, 1e-6*tt.in.OverallCoefficient) {
				t.Errorf("U: got %v, want %v", got.OverallCoefficient, tt.in.OverallCoefficient)
			}
			if !almostEqual(got.Effectiveness, res.Effectiveness, 1e-9) {
				t.Errorf("effectiveness: engine %v, rating %v", got.Effectiveness, res.Effectiveness)
			}
		})
	}
}

func TestRate_ParallelBelowCounter(t *testing.T) {
	in := Input{HotMassFlow: 0.3, ColdMassFlow: 0.25, HotInletTemp: 90, ColdInletTemp: 20, OverallCoefficient: 2000, SurfaceAreaM2: 0.4}
	counter, err := Rate(in)
	if err != nil {
		t.Fatal(err)
	}
	in.Arrangement = ParallelFlow
	parallel, err := Rate(in)
	if err != nil {
		t.Fatal(err)
	}
	if parallel.Effectiveness >= counter.Effectiveness {
		t.Errorf("parallel %v should be below counter %v", parallel.Effectiveness, counter.Effectiveness)
	}
	// parallel-flow outlets never cross
	if parallel.ColdOutletTemp > parallel.HotOutletTemp {
		t.Errorf("parallel outlets crossed: hot %v cold %v", parallel.HotOutletTemp, parallel.ColdOutletTemp)
	}
}

func TestRate_Errors(t *testing.T) {
	base := Input{HotMassFlow: 0.3, ColdMassFlow: 0.3, HotInletTemp: 90, ColdInletTemp: 20, OverallCoefficient: 2000, SurfaceAreaM2: 0.4}
	bad := []Input{base, base, base, base}
	bad[0].HotMassFlow = 0
	bad[1].SurfaceAreaM2 = -1
	bad[2].HotInletTemp = 20
	bad[3].Arrangement = "crossflow"
	for i, in := range bad {
		if _, err := Rate(in); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestHandler_Calc(t *testing.T) {
	h := &Handler{}
	w := httptest.NewRecorder()
	body := `{"m_hot":0.3,"m_cold":0.3,"th_in":90,"tc_in":20,"u_w_m2c":2000,"surface_area_m2":0.4}`
	h.Calc(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"arrangement":"counter"`) {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}
