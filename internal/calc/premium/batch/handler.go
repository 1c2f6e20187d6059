package batch

import (
	"encoding/json"
	"net/http"

	exchanger "HeatX/internal/calc/exchanger"
)

type Handler struct {
	Calc *exchanger.Handler
}

func (h *Handler) Exchanger(w http.ResponseWriter, r *http.Request) {
	var input BatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(h.Calc.Run, input)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var input exchanger.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := ComparePolicies(h.Calc.Run, input)
	if err != nil {
		exchanger.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
