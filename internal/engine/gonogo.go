package engine

import (
	"fmt"
	"strings"
	"time"
)

// DecisionWeight ranks how much a factor matters to a go/no-go call
type DecisionWeight int

const (
	WeightMinimal  DecisionWeight = 1
	WeightLow      DecisionWeight = 3
	WeightMedium   DecisionWeight = 5
	WeightHigh     DecisionWeight = 7
	WeightCritical DecisionWeight = 10
)

// WeightedFactor is one input to a go/no-go evaluation. Extract pulls the
// value out of a forecast hour (nil when unknown) and Passes tests it. A
// blocking factor forces NO_GO on failure regardless of the overall score.
type WeightedFactor struct {
	Name      string
	Unit      string
	Weight    DecisionWeight
	Blocking  bool
	Threshold float64
	Extract   func(HourlyForecast) *float64
	Passes    func(float64) bool
}

// FactorResult is the evaluated state of one weighted factor
type FactorResult struct {
	Name      string         `json:"name"`
	Unit      string         `json:"unit,omitempty"`
	Passed    bool           `json:"passed"`
	HasValue  bool           `json:"has_value"`
	Value     float64        `json:"value,omitempty"`
	Threshold float64        `json:"threshold"`
	Severity  FactorSeverity `json:"severity"`
	Message   string         `json:"message"`
}

// GoNoGoResult is a weighted verdict with its contributing factors
type GoNoGoResult struct {
	Time            time.Time      `json:"time"`
	Verdict         Verdict        `json:"verdict"`
	Score           float64        `json:"score"`
	Confidence      float64        `json:"confidence"`
	Factors         []FactorResult `json:"factors"`
	BlockingFactors []string       `json:"blocking_factors,omitempty"`
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

// evaluate tests the factor against one forecast hour. An unknown value
// passes with informational severity rather than failing the factor.
func (f WeightedFactor) evaluate(h HourlyForecast) FactorResult {
	res := FactorResult{Name: f.Name, Unit: f.Unit, Threshold: f.Threshold}

	v := f.Extract(h)
	if v == nil {
		res.Passed = true
		res.Severity = SeverityInfo
		res.Message = fmt.Sprintf("%s: no data available", f.Name)
		return res
	}

	res.HasValue = true
	res.Value = *v
	res.Passed = f.Passes(*v)
	if res.Passed {
		res.Severity = SeverityGood
		res.Message = fmt.Sprintf("%s: %g%s OK", f.Name, *v, f.Unit)
		return res
	}

	switch {
	case f.Blocking || f.Weight == WeightCritical:
		res.Severity = SeverityCritical
	case f.Weight == WeightHigh:
		res.Severity = SeverityWarning
	default:
		res.Severity = SeverityCaution
	}
	res.Message = fmt.Sprintf("%s: %g%s exceeds limit %g%s", f.Name, *v, f.Unit, f.Threshold, f.Unit)
	return res
}

// Evaluator makes go/no-go calls from a fixed set of weighted factors
type Evaluator struct {
	factors []WeightedFactor
}

func NewEvaluator(factors []WeightedFactor) *Evaluator {
	return &Evaluator{factors: factors}
}

// Evaluate produces a weighted verdict for one forecast hour. Failed factors
// contribute nothing to the score. Any blocking or critical-weight failure
// forces NO_GO; otherwise the score alone decides.
func (e *Evaluator) Evaluate(h HourlyForecast) GoNoGoResult {
	out := GoNoGoResult{Time: h.Time, Confidence: 0.8}

	var earned, total float64
	for _, f := range e.factors {
		r := f.evaluate(h)
		out.Factors = append(out.Factors, r)

		total += float64(f.Weight)
		if r.Passed {
			earned += float64(f.Weight) * 100
		} else if f.Blocking || f.Weight == WeightCritical {
			out.BlockingFactors = append(out.BlockingFactors, f.Name)
		}
	}
	if total > 0 {
		out.Score = earned / total
	}

	switch {
	case len(out.BlockingFactors) > 0:
		out.Verdict = VerdictNoGo
		out.Summary = "Blocked by: " + strings.Join(out.BlockingFactors, ", ")
	case out.Score >= 70:
		out.Verdict = VerdictGo
		out.Summary = "Conditions are favorable"
	case out.Score >= 50:
		out.Verdict = VerdictMarginal
		out.Summary = "Conditions are acceptable but not ideal"
	default:
		out.Verdict = VerdictNoGo
		out.Summary = "Multiple factors below acceptable thresholds"
	}

	for _, r := range out.Factors {
		if !r.Passed {
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("Monitor %s: currently %g%s", r.Name, r.Value, r.Unit))
		}
	}
	return out
}

func extractCloudCover(h HourlyForecast) *float64 {
	if h.Clouds == nil {
		return nil
	}
	v := h.Clouds.TotalPercent
	return &v
}

func extractPrecipProbability(h HourlyForecast) *float64 {
	var v float64
	if h.Precipitation != nil {
		v = h.Precipitation.ProbabilityPercent
	}
	return &v
}

func extractWindSpeed(h HourlyForecast) *float64 {
	if h.Wind == nil {
		return nil
	}
	v := h.Wind.SpeedMps
	return &v
}

func extractWindGust(h HourlyForecast) *float64 {
	if h.Wind == nil {
		return nil
	}
	return h.Wind.GustMps
}

func extractTemperature(h HourlyForecast) *float64 {
	v := h.TemperatureC
	return &v
}

func extractMoonIllumination(h HourlyForecast) *float64 {
	if h.Astro == nil {
		return nil
	}
	return h.Astro.MoonIlluminationPercent
}

func extractSunAltitude(h HourlyForecast) *float64 {
	if h.Astro == nil {
		return nil
	}
	return h.Astro.SunAltitudeDeg
}

func atMost(limit float64) func(float64) bool {
	return func(v float64) bool { return v <= limit }
}

func atLeast(limit float64) func(float64) bool {
	return func(v float64) bool { return v >= limit }
}

// AstronomyThresholds holds the limits for night-sky observation decisions.
// MaxMoonIllumination is nil when moonlight should not count against the night.
type AstronomyThresholds struct {
	MaxCloudCoverPercent float64
	MaxPrecipProbability float64
	MaxWindSpeedMps      float64
	MaxWindGustMps       float64
	MinTemperatureC      float64
	MaxMoonIllumination  *float64
}

func DefaultAstronomyThresholds() AstronomyThresholds {
	return AstronomyThresholds{
		MaxCloudCoverPercent: 30,
		MaxPrecipProbability: 20,
		MaxWindSpeedMps:      8,
		MaxWindGustMps:       12,
		MinTemperatureC:      -10,
	}
}

// NewAstronomyEvaluator builds the evaluator for night-sky observation
func NewAstronomyEvaluator(th AstronomyThresholds) *Evaluator {
	factors := []WeightedFactor{
		{Name: "Cloud Cover", Unit: "%", Weight: WeightCritical, Blocking: true,
			Threshold: th.MaxCloudCoverPercent, Extract: extractCloudCover, Passes: atMost(th.MaxCloudCoverPercent)},
		{Name: "Precipitation Chance", Unit: "%", Weight: WeightCritical, Blocking: true,
			Threshold: th.MaxPrecipProbability, Extract: extractPrecipProbability, Passes: atMost(th.MaxPrecipProbability)},
		{Name: "Wind Speed", Unit: " m/s", Weight: WeightHigh,
			Threshold: th.MaxWindSpeedMps, Extract: extractWindSpeed, Passes: atMost(th.MaxWindSpeedMps)},
		{Name: "Wind Gusts", Unit: " m/s", Weight: WeightMedium,
			Threshold: th.MaxWindGustMps, Extract: extractWindGust, Passes: atMost(th.MaxWindGustMps)},
		{Name: "Temperature", Unit: "°C", Weight: WeightMedium,
			Threshold: th.MinTemperatureC, Extract: extractTemperature, Passes: atLeast(th.MinTemperatureC)},
	}
	if th.MaxMoonIllumination != nil {
		limit := *th.MaxMoonIllumination
		factors = append(factors, WeightedFactor{
			Name: "Moon Illumination", Unit: "%", Weight: WeightLow,
			Threshold: limit, Extract: extractMoonIllumination, Passes: atMost(limit),
		})
	}
	return NewEvaluator(factors)
}

// SolarThresholds holds the limits for solar observation decisions, which
// need the sun well above the horizon and very clear skies.
type SolarThresholds struct {
	MaxCloudCoverPercent float64
	MinSunAltitudeDeg    float64
	MaxWindSpeedMps      float64
}

func DefaultSolarThresholds() SolarThresholds {
	return SolarThresholds{
		MaxCloudCoverPercent: 15,
		MinSunAltitudeDeg:    20,
		MaxWindSpeedMps:      5,
	}
}

// NewSolarEvaluator builds the evaluator for solar observation
func NewSolarEvaluator(th SolarThresholds) *Evaluator {
	return NewEvaluator([]WeightedFactor{
		{Name: "Cloud Cover", Unit: "%", Weight: WeightCritical, Blocking: true,
			Threshold: th.MaxCloudCoverPercent, Extract: extractCloudCover, Passes: atMost(th.MaxCloudCoverPercent)},
		{Name: "Sun Altitude", Unit: "°", Weight: WeightCritical, Blocking: true,
			Threshold: th.MinSunAltitudeDeg, Extract: extractSunAltitude, Passes: atLeast(th.MinSunAltitudeDeg)},
		{Name: "Wind Speed", Unit: " m/s", Weight: WeightHigh,
			Threshold: th.MaxWindSpeedMps, Extract: extractWindSpeed, Passes: atMost(th.MaxWindSpeedMps)},
	})
}
