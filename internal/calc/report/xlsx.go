package report

import (
	"fmt"
	"io"

	"HeatX/internal/calc/exchanger"

	"github.com/xuri/excelize/v2"
)

const (
	SheetReadings = "Readings"
	SheetResults  = "Results"
)

func WriteXLSX(w io.Writer, out exchanger.Output) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReadings); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetResults); err != nil {
		return fmt.Errorf("xlsx: new sheet: %w", err)
	}

	rows := [][]interface{}{{"m_hot", "m_cold", "th_in", "th_out", "tc_in", "tc_out"}}
	for _, r := range out.Readings {
		hot, cold := r.Flows()
		rows = append(rows, []interface{}{hot, cold, r.HotInletTemp, r.HotOutletTemp, r.ColdInletTemp, r.ColdOutletTemp})
	}
	rows = append(rows, nil,
		[]interface{}{"surface_area_m2", out.SurfaceAreaM2},
		[]interface{}{"specific_heat", out.SpecificHeat},
		[]interface{}{"duty_policy", string(out.Policy)},
	)
	if err := writeRows(f, SheetReadings, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"reading", "m_hot", "Qh (W)", "Qc (W)", "Q (W)", "LMTD (°C)", "U (W/m²°C)", "effectiveness", "warnings"}}
	for _, r := range out.Results {
		warn := ""
		for i, s := range r.Warnings {
			if i > 0 {
				warn += "; "
			}
			warn += s
		}
		rows = append(rows, []interface{}{r.Index + 1, r.HotMassFlow, r.HotDuty, r.ColdDuty, r.HeatDuty, r.LMTD, r.OverallCoefficient, r.Effectiveness, warn})
	}
	for _, fl := range out.Failures {
		rows = append(rows, []interface{}{fl.Index + 1, "", "", "", "", "", "", fl.Kind, fl.Reason})
	}
	rows = append(rows, nil, []interface{}{"average efficiency (%)", out.Aggregate.Percent},
		[]interface{}{"excluded readings", out.Aggregate.Excluded})
	if err := writeRows(f, SheetResults, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
