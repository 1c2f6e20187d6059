package recommend

import (
	"fmt"

	exchanger "HeatX/internal/calc/exchanger"
)

type AreaInput struct {
	TargetDutyW        float64 `json:"target_duty_w"`
	OverallCoefficient float64 `json:"u_w_m2c"`
	LMTD               float64 `json:"lmtd"`
	MarginPct          float64 `json:"margin_pct"`
}

type AreaResult struct {
	RequiredAreaM2   float64 `json:"required_area_m2"`
	AreaWithMarginM2 float64 `json:"area_with_margin_m2"`
	Notes            string  `json:"notes"`
}

// SurfaceArea sizes the exchanger for a target duty: A = Q / (U * LMTD).
func SurfaceArea(in AreaInput) (AreaResult, error) {
	if in.TargetDutyW <= 0 || in.OverallCoefficient <= 0 || in.LMTD <= 0 {
		return AreaResult{}, fmt.Errorf("invalid input")
	}
	if in.MarginPct < 0 {
		return AreaResult{}, fmt.Errorf("negative margin")
	}
	a := in.TargetDutyW / (in.OverallCoefficient * in.LMTD)
	return AreaResult{
		RequiredAreaM2:   a,
		AreaWithMarginM2: a * (1 + in.MarginPct/100),
		Notes:            "Required area from measured U and LMTD.",
	}, nil
}

// FromOutput sizes against the mean U and mean LMTD of a computed batch.
func FromOutput(out exchanger.Output, targetDutyW, marginPct float64) (AreaResult, error) {
	if len(out.Results) == 0 {
		return AreaResult{}, fmt.Errorf("no successful readings")
	}
	var u, lmtd float64
	for _, r := range out.Results {
		u += r.OverallCoefficient
		lmtd += r.LMTD
	}
	n := float64(len(out.Results))
	res, err := SurfaceArea(AreaInput{
		TargetDutyW:        targetDutyW,
		OverallCoefficient: u / n,
		LMTD:               lmtd / n,
		MarginPct:          marginPct,
	})
	if err != nil {
		return AreaResult{}, err
	}
	res.Notes = fmt.Sprintf("Required area from mean U and LMTD of %d reading(s).", len(out.Results))
	return res, nil
}
