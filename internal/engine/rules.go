package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Verdict is the overall call for an activity at a point in time
type Verdict string

const (
	VerdictGo       Verdict = "GO"
	VerdictMarginal Verdict = "MARGINAL"
	VerdictNoGo     Verdict = "NO_GO"
)

// FactorSeverity grades how much a single factor should worry the reader
type FactorSeverity string

const (
	SeverityGood     FactorSeverity = "GOOD"
	SeverityInfo     FactorSeverity = "INFO"
	SeverityCaution  FactorSeverity = "CAUTION"
	SeverityWarning  FactorSeverity = "WARNING"
	SeverityCritical FactorSeverity = "CRITICAL"
)

// DecisionFactor is one line item in a decision explanation
type DecisionFactor struct {
	Name      string         `json:"name"`
	Passed    bool           `json:"passed"`
	Severity  FactorSeverity `json:"severity"`
	Actual    float64        `json:"actual,omitempty"`
	HasActual bool           `json:"has_actual"`
	Message   string         `json:"message"`
}

// Decision is the full explained verdict for an activity at one hour
type Decision struct {
	Activity        string           `json:"activity"`
	Time            time.Time        `json:"time"`
	Verdict         Verdict          `json:"verdict"`
	Score           float64          `json:"score"`
	Confidence      float64          `json:"confidence"`
	Factors         []DecisionFactor `json:"factors"`
	BlockingFactors []string         `json:"blocking_factors,omitempty"`
	Summary         string           `json:"summary"`
	Recommendations []string         `json:"recommendations,omitempty"`
}

// EvaluationResult is the scored outcome for one forecast hour. Blocking
// holds the failed required conditions.
type EvaluationResult struct {
	Time     time.Time         `json:"time"`
	Score    float64           `json:"score"`
	Passed   bool              `json:"passed"`
	Results  []ConditionResult `json:"results"`
	Blocking []ConditionResult `json:"blocking,omitempty"`
}

// EvaluateConditions scores a forecast hour against a condition set. Each
// condition contributes weight*100 when it passes and a severity-discounted
// partial credit when it fails. The hour passes only when every required
// condition passes.
func EvaluateConditions(conditions []Condition, f HourlyForecast) EvaluationResult {
	res := EvaluationResult{Time: f.Time, Passed: true}

	var numerator, totalWeight float64
	for _, c := range conditions {
		w := c.Weight
		if w == 0 {
			w = 1
		}
		r := c.Evaluate(f)
		res.Results = append(res.Results, r)

		totalWeight += w
		if r.Passed {
			numerator += w * 100
		} else {
			credit := 100 - c.SeverityOnFail*10
			if credit < 0 {
				credit = 0
			}
			numerator += w * credit
			if c.Required {
				res.Passed = false
				res.Blocking = append(res.Blocking, r)
			}
		}
	}

	if totalWeight == 0 {
		res.Score = 100
	} else {
		res.Score = numerator / totalWeight
	}
	return res
}

// RuleEngine translates activity requirements into condition sets and
// evaluates forecasts against them. Translated sets are cached per activity.
type RuleEngine struct {
	mu    sync.Mutex
	cache map[string][]Condition
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{cache: make(map[string][]Condition)}
}

// ClearCache drops all cached condition sets, forcing retranslation on the
// next evaluation. Call after editing an activity's requirements.
func (e *RuleEngine) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string][]Condition)
	e.mu.Unlock()
}

// ConditionsFor returns the condition set for an activity, translating its
// requirements on first use.
func (e *RuleEngine) ConditionsFor(a Activity) []Condition {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cs, ok := e.cache[a.ID]; ok {
		return cs
	}
	cs := TranslateRequirements(a.Requirements)
	e.cache[a.ID] = cs
	return cs
}

// TranslateRequirements expands an activity's requirement tree into flat
// conditions. Hard limits become required conditions with high fail severity;
// ideal ranges become low-weight optional conditions that shade the score.
func TranslateRequirements(r Requirements) []Condition {
	var cs []Condition

	req := func(kind ConditionKind, op Operator, value, severity float64, desc string) {
		cs = append(cs, Condition{
			Kind: kind, Op: op, Value: value,
			Required: true, Weight: 1, SeverityOnFail: severity,
			Description: desc,
		})
	}
	ideal := func(kind ConditionKind, op Operator, value float64, desc string) {
		cs = append(cs, Condition{
			Kind: kind, Op: op, Value: value,
			Required: false, Weight: 0.5, SeverityOnFail: 2,
			Description: desc,
		})
	}

	if t := r.Temperature; t != nil {
		if t.MinC != nil {
			req(KindTemperature, OpGTE, *t.MinC, 8, "minimum temperature")
		}
		if t.MaxC != nil {
			req(KindTemperature, OpLTE, *t.MaxC, 8, "maximum temperature")
		}
		if t.IdealMinC != nil {
			ideal(KindTemperature, OpGTE, *t.IdealMinC, "ideal minimum temperature")
		}
		if t.IdealMaxC != nil {
			ideal(KindTemperature, OpLTE, *t.IdealMaxC, "ideal maximum temperature")
		}
	}

	if w := r.Wind; w != nil {
		if w.MaxSpeedMps != nil {
			req(KindWindSpeed, OpLTE, *w.MaxSpeedMps, 7, "maximum wind speed")
		}
		if w.MaxGustMps != nil {
			req(KindWindGust, OpLTE, *w.MaxGustMps, 7, "maximum wind gusts")
		}
		if w.IdealMaxSpeedMps != nil {
			ideal(KindWindSpeed, OpLTE, *w.IdealMaxSpeedMps, "ideal wind speed")
		}
	}

	if c := r.Clouds; c != nil {
		if c.MaxTotalPercent != nil {
			req(KindCloudCover, OpLTE, *c.MaxTotalPercent, 8, "maximum cloud cover")
		}
		if c.IdealMaxTotalPercent != nil {
			ideal(KindCloudCover, OpLTE, *c.IdealMaxTotalPercent, "ideal cloud cover")
		}
	}

	if p := r.Precipitation; p != nil && p.MaxProbabilityPercent != nil {
		req(KindPrecipProbability, OpLTE, *p.MaxProbabilityPercent, 6, "maximum precipitation chance")
	}

	if r.MinVisibilityM != nil {
		req(KindVisibility, OpGTE, *r.MinVisibilityM, 5, "minimum visibility")
	}

	if s := r.Sun; s != nil {
		if s.RequireBelowHorizon {
			req(KindSunAltitude, OpLT, 0, 10, "sun below horizon")
		}
		if s.RequireAstronomicalTwilight {
			req(KindSunAltitude, OpLT, -18, 10, "astronomical darkness")
		}
		if s.MinAltitudeDeg != nil {
			req(KindSunAltitude, OpGTE, *s.MinAltitudeDeg, 10, "minimum sun altitude")
		}
		if s.MaxAltitudeDeg != nil {
			req(KindSunAltitude, OpLTE, *s.MaxAltitudeDeg, 10, "maximum sun altitude")
		}
	}

	if m := r.Moon; m != nil {
		if m.MaxIlluminationPercent != nil {
			cs = append(cs, Condition{
				Kind: KindMoonIllumination, Op: OpLTE, Value: *m.MaxIlluminationPercent,
				Required: false, Weight: 0.7, SeverityOnFail: 3,
				Description: "maximum moon illumination",
			})
		}
		if m.RequireBelowHorizon {
			ideal(KindMoonAltitude, OpLT, 0, "moon below horizon")
		}
	}

	if r.MaxUVIndex != nil {
		req(KindUVIndex, OpLTE, *r.MaxUVIndex, 6, "maximum UV index")
	}

	if r.RequireDaylight {
		cs = append(cs, Condition{
			Kind: KindIsNight, Op: OpEQ, Flag: false,
			Required: true, Weight: 1, SeverityOnFail: 10,
			Description: "daylight required",
		})
	}
	if r.RequireDarkness {
		cs = append(cs, Condition{
			Kind: KindIsNight, Op: OpEQ, Flag: true,
			Required: true, Weight: 1, SeverityOnFail: 10,
			Description: "darkness required",
		})
	}

	return cs
}

// EvaluateHour scores a single forecast hour for an activity
func (e *RuleEngine) EvaluateHour(a Activity, f HourlyForecast) EvaluationResult {
	return EvaluateConditions(e.ConditionsFor(a), f)
}

// EvaluateForecast scores every hour of a forecast for an activity
func (e *RuleEngine) EvaluateForecast(a Activity, fc *Forecast) []EvaluationResult {
	cs := e.ConditionsFor(a)
	out := make([]EvaluationResult, 0, len(fc.Hourly))
	for _, h := range fc.Hourly {
		out = append(out, EvaluateConditions(cs, h))
	}
	return out
}

// FindBestTime returns the highest-scoring hour. With requirePassing set,
// hours that failed a required condition are skipped. Earlier hours win ties.
// Returns nil when nothing qualifies.
func FindBestTime(results []EvaluationResult, requirePassing bool) *EvaluationResult {
	var best *EvaluationResult
	for i := range results {
		if requirePassing && !results[i].Passed {
			continue
		}
		if best == nil || results[i].Score > best.Score {
			best = &results[i]
		}
	}
	return best
}

// BestTime evaluates a whole forecast and returns the best hour for the
// activity, preferring hours that pass all required conditions.
func (e *RuleEngine) BestTime(a Activity, fc *Forecast, requirePassing bool) *EvaluationResult {
	return FindBestTime(e.EvaluateForecast(a, fc), requirePassing)
}

// MakeDecision turns a scored hour into an explained verdict. Confidence is
// the fraction of conditions whose actual value was known.
func (e *RuleEngine) MakeDecision(a Activity, res EvaluationResult) Decision {
	d := Decision{
		Activity: a.Name,
		Time:     res.Time,
		Score:    res.Score,
	}

	switch {
	case res.Passed && res.Score >= 80:
		d.Verdict = VerdictGo
		d.Summary = fmt.Sprintf("Conditions are favorable for %s", a.Name)
	case res.Passed:
		d.Verdict = VerdictMarginal
		d.Summary = fmt.Sprintf("Conditions are acceptable but not ideal for %s", a.Name)
	default:
		d.Verdict = VerdictNoGo
		names := make([]string, len(res.Blocking))
		for i, b := range res.Blocking {
			names[i] = string(b.Kind)
			d.Recommendations = append(d.Recommendations,
				fmt.Sprintf("Check %s: %s", b.Kind, b.Message))
		}
		d.BlockingFactors = names
		d.Summary = "Conditions not suitable: " + strings.Join(names, ", ")
	}

	known := 0
	for _, r := range res.Results {
		if r.HasActual {
			known++
		}
		sev := SeverityGood
		if !r.Passed {
			sev = SeverityWarning
			if r.Severity >= 8 {
				sev = SeverityCritical
			}
		}
		d.Factors = append(d.Factors, DecisionFactor{
			Name:      string(r.Kind),
			Passed:    r.Passed,
			Severity:  sev,
			Actual:    r.Actual,
			HasActual: r.HasActual,
			Message:   r.Message,
		})
	}
	if len(res.Results) > 0 {
		d.Confidence = float64(known) / float64(len(res.Results))
	}
	return d
}
