package importer

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	exchanger "HeatX/internal/calc/exchanger"

	"github.com/xuri/excelize/v2"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"ṁ (kg/s)", "Th_in (°C)", "Th_out (°C)", "Tc_in (°C)", "Tc_out (°C)"},
		{"0.22", "78", "65", "29", "46"},
		{"", "", "", "", ""},
		{"0,25", "85", "70", "30", "50"},
		{"abc", "85", "70", "30", "50"},
		{"0.30", "90", "75", "35"},
	}
	readings, skipped, err := ParseRows(rows)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("readings: got %d, want 2", len(readings))
	}
	if readings[1].MassFlow != 0.25 || readings[1].ColdOutletTemp != 50 {
		t.Errorf("second reading: %+v", readings[1])
	}
	if len(skipped) != 2 || skipped[0].Row != 5 || skipped[1].Row != 6 {
		t.Errorf("skipped: %+v", skipped)
	}
}

func TestParseRows_SeparateFlows(t *testing.T) {
	rows := [][]string{
		{"m_hot", "m_cold", "th_in", "th_out", "tc_in", "tc_out"},
		{"0.4", "0.2", "80", "70", "20", "40"},
	}
	readings, _, err := ParseRows(rows)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	hot, cold := readings[0].Flows()
	if hot != 0.4 || cold != 0.2 {
		t.Errorf("flows: got %v/%v", hot, cold)
	}
}

func TestParseRows_BadHeader(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"header only", [][]string{{"m", "th_in"}}},
		{"missing temperature", [][]string{{"m", "th_in", "th_out", "tc_in"}, {"1", "2", "3", "4"}}},
		{"missing flow", [][]string{{"m_hot", "th_in", "th_out", "tc_in", "tc_out"}, {"1", "2", "3", "4", "5"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseRows(tt.rows); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func upload(t *testing.T, name string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/tools-premium/exchanger/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_CSV(t *testing.T) {
	csvData := "m,th_in,th_out,tc_in,tc_out\n0.22,78,65,29,46\n0.25,85,70,30,50\n"
	h := &Handler{Calc: &exchanger.Handler{}}
	w := httptest.NewRecorder()
	h.Exchanger(w, upload(t, "lab.csv", []byte(csvData), map[string]string{"surface_area_m2": "0.157"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var res ImportResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Output.Results) != 2 || res.Output.Policy != exchanger.PolicyMin {
		t.Errorf("output: %+v", res.Output)
	}
}

func TestHandler_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"m", "th_in", "th_out", "tc_in", "tc_out"},
		{0.3, 90, 75, 35, 55},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	h := &Handler{Calc: &exchanger.Handler{}}
	w := httptest.NewRecorder()
	h.Exchanger(w, upload(t, "lab.xlsx", buf.Bytes(), map[string]string{
		"surface_area_m2": "0.157",
		"duty_policy":     "average",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var res ImportResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Output.Results) != 1 || res.Output.Policy != exchanger.PolicyAverage {
		t.Errorf("output: %+v", res.Output)
	}
}

func TestHandler_Rejects(t *testing.T) {
	h := &Handler{Calc: &exchanger.Handler{}}

	w := httptest.NewRecorder()
	h.Exchanger(w, upload(t, "lab.csv", []byte("a,b\n1,2\n"), map[string]string{"surface_area_m2": "1"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad header: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Exchanger(w, upload(t, "lab.csv", []byte("m,th_in,th_out,tc_in,tc_out\n0.2,80,70,20,40\n"), map[string]string{"surface_area_m2": "x"}))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "surface_area_m2") {
		t.Errorf("bad area: got %d %q", w.Code, w.Body.String())
	}
}

func TestHandler_AllRowsSkipped(t *testing.T) {
	csvData := "m,th_in,th_out,tc_in,tc_out\nabc,78,65,29,46\n0.25,85,70,30\n"
	h := &Handler{Calc: &exchanger.Handler{}}
	w := httptest.NewRecorder()
	h.Exchanger(w, upload(t, "lab.csv", []byte(csvData), map[string]string{"surface_area_m2": "0.157"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	var res ImportError
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Skipped) != 2 || res.Skipped[0].Row != 2 || res.Skipped[1].Row != 3 {
		t.Errorf("skipped rows: %+v", res.Skipped)
	}
	if res.Skipped[0].Reason == "" {
		t.Error("skip reason missing")
	}
}
