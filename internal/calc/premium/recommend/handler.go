package recommend

import (
	"encoding/json"
	"net/http"

	exchanger "HeatX/internal/calc/exchanger"
)

type Handler struct {
	Calc *exchanger.Handler
}

// Request either carries U and LMTD directly or readings to derive them from.
type Request struct {
	AreaInput
	Readings []exchanger.Reading `json:"readings,omitempty"`
	exchanger.Config
}

func (h *Handler) Area(w http.ResponseWriter, r *http.Request) {
	var input Request
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	var (
		res AreaResult
		err error
	)
	if len(input.Readings) > 0 {
		out, cerr := h.Calc.Run(exchanger.Input{Readings: input.Readings, Config: input.Config})
		if cerr != nil {
			exchanger.WriteError(w, cerr)
			return
		}
		res, err = FromOutput(out, input.TargetDutyW, input.MarginPct)
	} else {
		res, err = SurfaceArea(input.AreaInput)
	}
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
