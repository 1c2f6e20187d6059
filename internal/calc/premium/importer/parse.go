package importer

import (
	"fmt"
	"strconv"
	"strings"

	exchanger "HeatX/internal/calc/exchanger"
)

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// header spellings accepted for each reading column, after normalizeHeader
var columnAliases = map[string]string{
	"m":              "m",
	"ṁ":              "m",
	"mass_flow":      "m",
	"m_hot":          "m_hot",
	"mh":             "m_hot",
	"m_cold":         "m_cold",
	"mc":             "m_cold",
	"th_in":          "th_in",
	"hot_inlet":      "th_in",
	"th_out":         "th_out",
	"hot_outlet":     "th_out",
	"tc_in":          "tc_in",
	"cold_inlet":     "tc_in",
	"tc_out":         "tc_out",
	"cold_outlet":    "tc_out",
	"hot_mass_flow":  "m_hot",
	"cold_mass_flow": "m_cold",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.Index(h, "("); i >= 0 {
		h = strings.TrimSpace(h[:i])
	}
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// ParseRows reads readings from a sheet whose first row is a header.
// Rows that cannot be parsed are skipped and reported; a header without
// the required columns fails the whole import.
func ParseRows(rows [][]string) ([]exchanger.Reading, []RowError, error) {
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("empty sheet")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if key, ok := columnAliases[normalizeHeader(h)]; ok {
			cols[key] = i
		}
	}
	for _, key := range []string{"th_in", "th_out", "tc_in", "tc_out"} {
		if _, ok := cols[key]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", key)
		}
	}
	_, hasShared := cols["m"]
	_, hasHot := cols["m_hot"]
	_, hasCold := cols["m_cold"]
	if !hasShared && !(hasHot && hasCold) {
		return nil, nil, fmt.Errorf("missing mass flow column: need \"m\" or both \"m_hot\" and \"m_cold\"")
	}

	var readings []exchanger.Reading
	var skipped []RowError
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		r, err := parseRow(row, cols)
		if err != nil {
			skipped = append(skipped, RowError{Row: i + 1, Reason: err.Error()})
			continue
		}
		readings = append(readings, r)
	}
	return readings, skipped, nil
}

func parseRow(row []string, cols map[string]int) (exchanger.Reading, error) {
	get := func(key string) (float64, bool, error) {
		idx, ok := cols[key]
		if !ok || idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
			return 0, false, nil
		}
		v, err := toFloat(row[idx])
		if err != nil {
			return 0, false, fmt.Errorf("%s: %q is not a number", key, row[idx])
		}
		return v, true, nil
	}

	var r exchanger.Reading
	targets := []struct {
		key      string
		dst      *float64
		required bool
	}{
		{"m", &r.MassFlow, false},
		{"m_hot", &r.HotMassFlow, false},
		{"m_cold", &r.ColdMassFlow, false},
		{"th_in", &r.HotInletTemp, true},
		{"th_out", &r.HotOutletTemp, true},
		{"tc_in", &r.ColdInletTemp, true},
		{"tc_out", &r.ColdOutletTemp, true},
	}
	for _, tg := range targets {
		v, ok, err := get(tg.key)
		if err != nil {
			return exchanger.Reading{}, err
		}
		if !ok && tg.required {
			return exchanger.Reading{}, fmt.Errorf("%s: missing value", tg.key)
		}
		*tg.dst = v
	}
	if hot, cold := r.Flows(); hot == 0 || cold == 0 {
		return exchanger.Reading{}, fmt.Errorf("missing mass flow")
	}
	return r, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}
