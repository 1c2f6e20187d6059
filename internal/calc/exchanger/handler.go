package exchanger

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Recorder receives every computed batch and every rejected one.
type Recorder interface {
	RecordBatch(out Output)
	RecordBatchError(err error)
}

type Handler struct {
	Engine  *Engine
	Metrics Recorder
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	out, err := h.Run(input)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Run computes input with the handler's engine and records the outcome.
func (h *Handler) Run(input Input) (Output, error) {
	engine := h.Engine
	if engine == nil {
		engine = Default
	}
	out, err := engine.Calculate(input)
	if err != nil {
		log.WithField("kind", KindName(err)).Warnf("exchanger: batch rejected: %v", err)
		if h.Metrics != nil {
			h.Metrics.RecordBatchError(err)
		}
		return Output{}, err
	}
	if len(out.Failures) > 0 {
		log.WithFields(log.Fields{
			"readings": len(input.Readings),
			"failed":   len(out.Failures),
		}).Info("exchanger: batch computed with excluded readings")
	}
	if h.Metrics != nil {
		h.Metrics.RecordBatch(out)
	}
	return out, nil
}

// WriteError maps batch-level calculation errors to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidReading):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("exchanger: calculation error: %v", err)
		http.Error(w, "Calculation error", http.StatusInternalServerError)
	}
}
