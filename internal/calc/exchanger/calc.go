package exchanger

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultSpecificHeat = 4186.0

	// below this |ΔT1-ΔT2| the log mean collapses to ΔT1
	lmtdEpsilon = 1e-6
)

// DutyPolicy selects how the heat duty Q is derived from the hot and cold duties.
type DutyPolicy string

const (
	PolicyMin     DutyPolicy = "min"     // Q = min(Qh, Qc)
	PolicyAverage DutyPolicy = "average" // Q = (Qh + Qc) / 2
)

func (p DutyPolicy) Valid() bool {
	return p == PolicyMin || p == PolicyAverage
}

func ParsePolicy(s string) (DutyPolicy, error) {
	p := DutyPolicy(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown duty policy %q", ErrInvalidConfig, s)
	}
	return p, nil
}

// Reading is one experimental measurement. MassFlow applies to both streams
// unless HotMassFlow / ColdMassFlow are set.
type Reading struct {
	MassFlow       float64 `json:"m,omitempty"`
	HotMassFlow    float64 `json:"m_hot,omitempty"`
	ColdMassFlow   float64 `json:"m_cold,omitempty"`
	HotInletTemp   float64 `json:"th_in"`
	HotOutletTemp  float64 `json:"th_out"`
	ColdInletTemp  float64 `json:"tc_in"`
	ColdOutletTemp float64 `json:"tc_out"`
}

func (r Reading) Flows() (hot, cold float64) {
	hot, cold = r.HotMassFlow, r.ColdMassFlow
	if hot == 0 {
		hot = r.MassFlow
	}
	if cold == 0 {
		cold = r.MassFlow
	}
	return hot, cold
}

// Config holds the parameters shared by every reading of a batch.
type Config struct {
	SurfaceAreaM2 float64    `json:"surface_area_m2"`
	SpecificHeat  float64    `json:"specific_heat"`
	Policy        DutyPolicy `json:"duty_policy"`
}

type Input struct {
	Readings []Reading `json:"readings"`
	Config
}

type Result struct {
	Index              int      `json:"index"`
	HotMassFlow        float64  `json:"m_hot"`
	ColdMassFlow       float64  `json:"m_cold"`
	HotDuty            float64  `json:"hot_duty_w"`
	ColdDuty           float64  `json:"cold_duty_w"`
	HeatDuty           float64  `json:"heat_duty_w"`
	HeatBalance        float64  `json:"heat_balance_w"`
	DeltaT1            float64  `json:"delta_t1"`
	DeltaT2            float64  `json:"delta_t2"`
	LMTD               float64  `json:"lmtd"`
	OverallCoefficient float64  `json:"u_w_m2c"`
	CMin               float64  `json:"c_min"`
	MaxDuty            float64  `json:"max_duty_w"`
	Effectiveness      float64  `json:"effectiveness"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Failure describes an excluded reading. Index is its zero-based position in
// the input, the same as Result.Index; text meant for people counts from 1.
type Failure struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type Aggregate struct {
	MeanEffectiveness float64 `json:"mean_effectiveness"`
	Percent           string  `json:"percent"`
	Computed          int     `json:"computed"`
	Excluded          int     `json:"excluded"`
}

type Output struct {
	Policy        DutyPolicy `json:"duty_policy"`
	SpecificHeat  float64    `json:"specific_heat"`
	SurfaceAreaM2 float64    `json:"surface_area_m2"`
	Readings      []Reading  `json:"readings"`
	Results       []Result   `json:"results"`
	Failures      []Failure  `json:"failures"`
	Aggregate     Aggregate  `json:"aggregate"`
}

// Engine carries the defaults applied to incomplete configs and the
// fan-out settings for large batches. It holds no per-call state.
type Engine struct {
	SpecificHeat      float64
	Policy            DutyPolicy
	Workers           int
	ParallelThreshold int
}

var Default = &Engine{SpecificHeat: DefaultSpecificHeat, Policy: PolicyMin}

func Calculate(in Input) (Output, error) {
	return Default.Calculate(in)
}

func (e *Engine) Calculate(in Input) (Output, error) {
	cfg, err := e.Resolve(in.Config)
	if err != nil {
		return Output{}, err
	}
	results, failures, err := e.Compute(in.Readings, cfg)
	if err != nil {
		return Output{}, err
	}
	return Output{
		Policy:        cfg.Policy,
		SpecificHeat:  cfg.SpecificHeat,
		SurfaceAreaM2: cfg.SurfaceAreaM2,
		Readings:      in.Readings,
		Results:       results,
		Failures:      failures,
		Aggregate:     AverageEffectiveness(results, len(failures)),
	}, nil
}

// Resolve fills engine defaults into cfg and validates it.
func (e *Engine) Resolve(cfg Config) (Config, error) {
	if cfg.SpecificHeat == 0 {
		cfg.SpecificHeat = e.SpecificHeat
	}
	if cfg.SpecificHeat == 0 {
		cfg.SpecificHeat = DefaultSpecificHeat
	}
	if cfg.Policy == "" {
		cfg.Policy = e.Policy
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyMin
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !finite(c.SurfaceAreaM2) || c.SurfaceAreaM2 <= 0 {
		return fmt.Errorf("%w: surface area must be positive, got %g", ErrInvalidConfig, c.SurfaceAreaM2)
	}
	if !finite(c.SpecificHeat) || c.SpecificHeat <= 0 {
		return fmt.Errorf("%w: specific heat must be positive, got %g", ErrInvalidConfig, c.SpecificHeat)
	}
	if !c.Policy.Valid() {
		return fmt.Errorf("%w: unknown duty policy %q", ErrInvalidConfig, c.Policy)
	}
	return nil
}

// Compute evaluates every reading against a validated config. Failed
// readings are reported in failures and left out of results.
func (e *Engine) Compute(readings []Reading, cfg Config) ([]Result, []Failure, error) {
	if len(readings) == 0 {
		return nil, nil, ErrEmptyBatch
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	outcomes := e.evaluate(readings, cfg)
	results := make([]Result, 0, len(readings))
	failures := make([]Failure, 0)
	for _, o := range outcomes {
		if o.err != nil {
			var re *ReadingError
			reason := o.err.Error()
			if errors.As(o.err, &re) && re.Detail != "" {
				reason = re.Detail
			}
			failures = append(failures, Failure{Index: o.idx, Kind: KindName(o.err), Reason: reason})
			continue
		}
		results = append(results, o.res)
	}
	return results, failures, nil
}

// ComputeReading evaluates a single reading. idx is only used for reporting.
func ComputeReading(idx int, r Reading, cfg Config) (Result, error) {
	mh, mc := r.Flows()
	for _, v := range []float64{mh, mc, r.HotInletTemp, r.HotOutletTemp, r.ColdInletTemp, r.ColdOutletTemp} {
		if !finite(v) {
			return Result{}, readingErr(idx, ErrInvalidReading, "non-finite value")
		}
	}
	if mh <= 0 || mc <= 0 {
		return Result{}, readingErr(idx, ErrInvalidReading, "mass flow must be positive (hot %g, cold %g)", mh, mc)
	}

	cp := cfg.SpecificHeat
	qh := mh * cp * (r.HotInletTemp - r.HotOutletTemp)
	qc := mc * cp * (r.ColdOutletTemp - r.ColdInletTemp)

	var q float64
	switch cfg.Policy {
	case PolicyAverage:
		q = (qh + qc) / 2
	default:
		q = math.Min(qh, qc)
	}

	cmin := math.Min(mh*cp, mc*cp)
	inletSpan := r.HotInletTemp - r.ColdInletTemp
	if inletSpan == 0 {
		return Result{}, readingErr(idx, ErrDivisionByZero, "hot inlet equals cold inlet, maximum duty is zero")
	}
	if inletSpan < 0 {
		return Result{}, readingErr(idx, ErrInvalidTemperatureProfile, "hot inlet %g°C below cold inlet %g°C", r.HotInletTemp, r.ColdInletTemp)
	}
	qmax := cmin * inletSpan

	dt1 := r.HotInletTemp - r.ColdOutletTemp
	dt2 := r.HotOutletTemp - r.ColdInletTemp
	lmtd, err := LMTD(dt1, dt2)
	if err != nil {
		return Result{}, readingErr(idx, ErrInvalidTemperatureProfile, "temperature crossover (ΔT1=%g, ΔT2=%g)", dt1, dt2)
	}
	if lmtd == 0 {
		return Result{}, readingErr(idx, ErrDivisionByZero, "LMTD is zero")
	}

	u := q / (cfg.SurfaceAreaM2 * lmtd)
	eff := q / qmax
	for _, v := range []float64{qh, qc, q, qh - qc, dt1, dt2, cmin, qmax, lmtd, u, eff} {
		if !finite(v) {
			return Result{}, readingErr(idx, ErrDivisionByZero, "non-finite result")
		}
	}

	res := Result{
		Index:              idx,
		HotMassFlow:        mh,
		ColdMassFlow:       mc,
		HotDuty:            qh,
		ColdDuty:           qc,
		HeatDuty:           q,
		HeatBalance:        qh - qc,
		DeltaT1:            dt1,
		DeltaT2:            dt2,
		LMTD:               lmtd,
		OverallCoefficient: u,
		CMin:               cmin,
		MaxDuty:            qmax,
		Effectiveness:      eff,
	}
	if r.HotInletTemp <= r.HotOutletTemp {
		res.Warnings = append(res.Warnings, "hot stream does not cool")
	}
	if r.ColdOutletTemp <= r.ColdInletTemp {
		res.Warnings = append(res.Warnings, "cold stream does not heat")
	}
	switch {
	case eff > 1:
		res.Warnings = append(res.Warnings, "effectiveness above 1")
	case eff < 0:
		res.Warnings = append(res.Warnings, "effectiveness below 0")
	}
	return res, nil
}

// LMTD returns the log-mean of two terminal temperature differences.
func LMTD(dt1, dt2 float64) (float64, error) {
	if !(dt1 > 0) || !(dt2 > 0) {
		return 0, fmt.Errorf("%w: ΔT1=%g, ΔT2=%g", ErrInvalidTemperatureProfile, dt1, dt2)
	}
	if math.Abs(dt1-dt2) < lmtdEpsilon {
		return dt1, nil
	}
	// ln(dt1/dt2) via Log1p keeps precision when the ratio is close to 1
	return (dt1 - dt2) / math.Log1p((dt1-dt2)/dt2), nil
}

// AverageEffectiveness averages effectiveness over successful results.
func AverageEffectiveness(results []Result, excluded int) Aggregate {
	agg := Aggregate{Computed: len(results), Excluded: excluded, Percent: "0.00"}
	if len(results) == 0 {
		return agg
	}
	var sum float64
	for _, r := range results {
		sum += r.Effectiveness
	}
	agg.MeanEffectiveness = sum / float64(len(results))
	agg.Percent = fmt.Sprintf("%.2f", agg.MeanEffectiveness*100)
	return agg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
