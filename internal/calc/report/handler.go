package report

import (
	"bytes"
	"encoding/json"
	"net/http"

	"HeatX/internal/calc/exchanger"

	log "github.com/sirupsen/logrus"
)

type Input struct {
	Meta
	exchanger.Input
}

type Handler struct {
	Calc *exchanger.Handler
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, exchanger.Output, bool) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return Input{}, exchanger.Output{}, false
	}
	out, err := h.Calc.Run(input.Input)
	if err != nil {
		exchanger.WriteError(w, err)
		return Input{}, exchanger.Output{}, false
	}
	return input, out, true
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	input, out, ok := h.decode(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, input.Meta, out); err != nil {
		log.Errorf("report: pdf: %v", err)
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"exchanger-report.pdf\"")
	w.Write(buf.Bytes())
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	_, out, ok := h.decode(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, out); err != nil {
		log.Errorf("report: xlsx: %v", err)
		http.Error(w, "Export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"exchanger-results.xlsx\"")
	w.Write(buf.Bytes())
}
