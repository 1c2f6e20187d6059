package chart

import (
	"encoding/json"
	"net/http"

	"HeatX/internal/calc/exchanger"
)

type View struct {
	Output exchanger.Output `json:"output"`
	Table  Table            `json:"table"`
	Charts []Chart          `json:"charts"`
}

type Handler struct {
	Calc *exchanger.Handler
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var input exchanger.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	out, err := h.Calc.Run(input)
	if err != nil {
		exchanger.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(View{Output: out, Table: BuildTable(out), Charts: Build(out)})
}
