package main

import (
	"fmt"
	"strconv"
	"strings"

	exchanger "HeatX/internal/calc/exchanger"
)

// area of the laboratory unit, used when /calc omits it
const defaultAreaM2 = 0.157

const usage = `Usage:
/calc m th_in th_out tc_in tc_out [area]

m       mass flow of both streams, kg/s
th_in   hot inlet, °C
th_out  hot outlet, °C
tc_in   cold inlet, °C
tc_out  cold outlet, °C
area    surface area, m² (default 0.157)`

// ParseCalc reads the arguments of a /calc command. Decimal commas are accepted.
func ParseCalc(args []string) (exchanger.Input, error) {
	if len(args) != 5 && len(args) != 6 {
		return exchanger.Input{}, fmt.Errorf("expected 5 or 6 numbers, got %d", len(args))
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(strings.ReplaceAll(a, ",", "."), 64)
		if err != nil {
			return exchanger.Input{}, fmt.Errorf("%q is not a number", a)
		}
		vals[i] = v
	}
	area := defaultAreaM2
	if len(vals) == 6 {
		area = vals[5]
	}
	return exchanger.Input{
		Readings: []exchanger.Reading{{
			MassFlow:       vals[0],
			HotInletTemp:   vals[1],
			HotOutletTemp:  vals[2],
			ColdInletTemp:  vals[3],
			ColdOutletTemp: vals[4],
		}},
		Config: exchanger.Config{SurfaceAreaM2: area},
	}, nil
}

func FormatOutput(out exchanger.Output) string {
	if len(out.Failures) > 0 {
		return "⚠️ " + out.Failures[0].Reason
	}
	r := out.Results[0]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Qh = %.2f W\n", r.HotDuty)
	fmt.Fprintf(&sb, "Qc = %.2f W\n", r.ColdDuty)
	fmt.Fprintf(&sb, "Q (%s) = %.2f W\n", out.Policy, r.HeatDuty)
	fmt.Fprintf(&sb, "LMTD = %.2f °C\n", r.LMTD)
	fmt.Fprintf(&sb, "U = %.2f W/(m²·°C)\n", r.OverallCoefficient)
	fmt.Fprintf(&sb, "ε = %.3f (%s%%)", r.Effectiveness, out.Aggregate.Percent)
	for _, w := range r.Warnings {
		sb.WriteString("\n⚠️ " + w)
	}
	return sb.String()
}
