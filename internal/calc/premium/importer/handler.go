package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	exchanger "HeatX/internal/calc/exchanger"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const MaxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Calc *exchanger.Handler
}

type ImportResult struct {
	Output  exchanger.Output `json:"output"`
	Skipped []RowError       `json:"skipped_rows"`
}

// ImportError is returned when no row of the file yields a reading.
type ImportError struct {
	Error   string     `json:"error"`
	Skipped []RowError `json:"skipped_rows"`
}

func (h *Handler) Exchanger(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		http.Error(w, "File too big", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := ReadRows(file, header.Filename)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	readings, skipped, err := ParseRows(rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(readings) == 0 {
		log.WithFields(log.Fields{
			"file":    header.Filename,
			"skipped": len(skipped),
		}).Info("importer: no usable rows")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ImportError{Error: "no usable rows", Skipped: skipped})
		return
	}

	cfg, err := formConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := h.Calc.Run(exchanger.Input{Readings: readings, Config: cfg})
	if err != nil {
		exchanger.WriteError(w, err)
		return
	}
	log.WithFields(log.Fields{
		"file":     header.Filename,
		"readings": len(readings),
		"skipped":  len(skipped),
	}).Info("importer: readings imported")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ImportResult{Output: out, Skipped: skipped})
}

// ReadRows returns the cells of a CSV file or of the first sheet of a workbook.
func ReadRows(file io.Reader, name string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		cr := csv.NewReader(file)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		return cr.ReadAll()
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

func formConfig(r *http.Request) (exchanger.Config, error) {
	var cfg exchanger.Config
	parse := func(key string) (float64, error) {
		s := strings.TrimSpace(r.FormValue(key))
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s", key)
		}
		return v, nil
	}
	var err error
	if cfg.SurfaceAreaM2, err = parse("surface_area_m2"); err != nil {
		return cfg, err
	}
	if cfg.SpecificHeat, err = parse("specific_heat"); err != nil {
		return cfg, err
	}
	cfg.Policy = exchanger.DutyPolicy(strings.TrimSpace(r.FormValue("duty_policy")))
	return cfg, nil
}
