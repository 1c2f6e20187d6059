package rating

import (
	"fmt"
	"math"

	exchanger "HeatX/internal/calc/exchanger"
)

type Arrangement string

const (
	CounterFlow  Arrangement = "counter"
	ParallelFlow Arrangement = "parallel"
)

// below this |1-Cr| the counter-flow relation uses its Cr=1 limit
const crEpsilon = 1e-9

type Input struct {
	Arrangement        Arrangement `json:"arrangement"`
	HotMassFlow        float64     `json:"m_hot"`
	ColdMassFlow       float64     `json:"m_cold"`
	HotInletTemp       float64     `json:"th_in"`
	ColdInletTemp      float64     `json:"tc_in"`
	OverallCoefficient float64     `json:"u_w_m2c"`
	SurfaceAreaM2      float64     `json:"surface_area_m2"`
	SpecificHeat       float64     `json:"specific_heat"`
}

type Result struct {
	Arrangement    Arrangement `json:"arrangement"`
	NTU            float64     `json:"ntu"`
	CapacityRatio  float64     `json:"capacity_ratio"`
	Effectiveness  float64     `json:"effectiveness"`
	HeatDuty       float64     `json:"heat_duty_w"`
	HotOutletTemp  float64     `json:"th_out"`
	ColdOutletTemp float64     `json:"tc_out"`
	Notes          string      `json:"notes"`
}

// Rate predicts outlet temperatures of a double-pipe exchanger with the
// ε-NTU method.
func Rate(in Input) (Result, error) {
	if in.HotMassFlow <= 0 || in.ColdMassFlow <= 0 || in.OverallCoefficient <= 0 || in.SurfaceAreaM2 <= 0 {
		return Result{}, fmt.Errorf("invalid input")
	}
	if in.HotInletTemp <= in.ColdInletTemp {
		return Result{}, fmt.Errorf("%w: hot inlet must exceed cold inlet", exchanger.ErrInvalidTemperatureProfile)
	}
	if in.SpecificHeat <= 0 {
		in.SpecificHeat = exchanger.DefaultSpecificHeat
	}
	if in.Arrangement == "" {
		in.Arrangement = CounterFlow
	}

	ch := in.HotMassFlow * in.SpecificHeat
	cc := in.ColdMassFlow * in.SpecificHeat
	cmin, cmax := math.Min(ch, cc), math.Max(ch, cc)
	cr := cmin / cmax
	ntu := in.OverallCoefficient * in.SurfaceAreaM2 / cmin

	var eff float64
	switch in.Arrangement {
	case CounterFlow:
		if math.Abs(1-cr) < crEpsilon {
			eff = ntu / (1 + ntu)
		} else {
			e := math.Exp(-ntu * (1 - cr))
			eff = (1 - e) / (1 - cr*e)
		}
	case ParallelFlow:
		eff = (1 - math.Exp(-ntu*(1+cr))) / (1 + cr)
	default:
		return Result{}, fmt.Errorf("unknown arrangement %q", in.Arrangement)
	}

	q := eff * cmin * (in.HotInletTemp - in.ColdInletTemp)
	return Result{
		Arrangement:    in.Arrangement,
		NTU:            ntu,
		CapacityRatio:  cr,
		Effectiveness:  eff,
		HeatDuty:       q,
		HotOutletTemp:  in.HotInletTemp - q/ch,
		ColdOutletTemp: in.ColdInletTemp + q/cc,
		Notes:          "ε-NTU rating, single-pass double pipe.",
	}, nil
}
