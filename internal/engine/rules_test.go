package engine

import (
	"math"
	"strings"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestEvaluateConditionsScoring(t *testing.T) {
	t.Run("all passing", func(t *testing.T) {
		cs := []Condition{
			{Kind: KindTemperature, Op: OpGTE, Value: 0, Required: true, Weight: 1, SeverityOnFail: 8},
			{Kind: KindTemperature, Op: OpLTE, Value: 30, Required: true, Weight: 1, SeverityOnFail: 8},
		}
		res := EvaluateConditions(cs, basicHour(15))
		if !res.Passed || res.Score != 100 {
			t.Errorf("got passed=%v score=%v, want passed with 100", res.Passed, res.Score)
		}
	})

	t.Run("failed optional gives partial credit", func(t *testing.T) {
		cs := []Condition{
			{Kind: KindTemperature, Op: OpGTE, Value: 0, Required: true, Weight: 1, SeverityOnFail: 8},
			{Kind: KindTemperature, Op: OpLTE, Value: 10, Required: false, Weight: 0.5, SeverityOnFail: 2},
		}
		res := EvaluateConditions(cs, basicHour(15))
		if !res.Passed {
			t.Error("optional failure should not fail the hour")
		}
		// 1*100 + 0.5*(100-2*10) = 140 over weight 1.5
		want := 140.0 / 1.5
		if !almostEqual(res.Score, want) {
			t.Errorf("score = %v, want %v", res.Score, want)
		}
	})

	t.Run("severity floors at zero credit", func(t *testing.T) {
		cs := []Condition{
			{Kind: KindTemperature, Op: OpGTE, Value: 50, Required: true, Weight: 1, SeverityOnFail: 12},
		}
		res := EvaluateConditions(cs, basicHour(15))
		if res.Passed || res.Score != 0 {
			t.Errorf("got passed=%v score=%v, want failed with 0", res.Passed, res.Score)
		}
	})

	t.Run("no conditions scores 100", func(t *testing.T) {
		res := EvaluateConditions(nil, basicHour(15))
		if !res.Passed || res.Score != 100 {
			t.Errorf("got passed=%v score=%v, want passed with 100", res.Passed, res.Score)
		}
	})
}

func TestRequiredFailureFailsHour(t *testing.T) {
	cs := []Condition{
		{Kind: KindTemperature, Op: OpGTE, Value: 20, Required: true, Weight: 1, SeverityOnFail: 8},
		{Kind: KindTemperature, Op: OpLTE, Value: 30, Required: true, Weight: 1, SeverityOnFail: 8},
	}
	res := EvaluateConditions(cs, basicHour(15))
	if res.Passed {
		t.Error("required failure must fail the hour")
	}
	// 1*20 + 1*100 over weight 2
	if !almostEqual(res.Score, 60) {
		t.Errorf("score = %v, want 60", res.Score)
	}
}

func TestMakeDecisionVerdicts(t *testing.T) {
	eng := NewRuleEngine()
	a := Activity{ID: "test", Name: "Test"}

	tests := []struct {
		name string
		res  EvaluationResult
		want Verdict
	}{
		{"go at 80", EvaluationResult{Passed: true, Score: 80}, VerdictGo},
		{"marginal below 80", EvaluationResult{Passed: true, Score: 79.9}, VerdictMarginal},
		{"no-go on failure", EvaluationResult{Passed: false, Score: 95}, VerdictNoGo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eng.MakeDecision(a, tt.res).Verdict; got != tt.want {
				t.Errorf("verdict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMakeDecisionConfidenceAndFactors(t *testing.T) {
	eng := NewRuleEngine()
	a := Activity{ID: "test", Name: "Test"}

	cs := []Condition{
		{Kind: KindTemperature, Op: OpGTE, Value: 0, Required: true, Weight: 1, SeverityOnFail: 8},
		{Kind: KindWindSpeed, Op: OpLTE, Value: 10, Required: true, Weight: 1, SeverityOnFail: 7},
	}
	res := EvaluateConditions(cs, basicHour(15)) // no wind data
	d := eng.MakeDecision(a, res)

	if d.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 with one unknown of two", d.Confidence)
	}
	if len(d.Factors) != 2 {
		t.Fatalf("got %d factors, want 2", len(d.Factors))
	}
	if d.Factors[0].Severity != SeverityGood {
		t.Errorf("passing factor severity = %v, want GOOD", d.Factors[0].Severity)
	}
	if d.Factors[1].Severity != SeverityWarning {
		t.Errorf("failed wind factor severity = %v, want WARNING", d.Factors[1].Severity)
	}
}

func TestMakeDecisionCriticalSeverity(t *testing.T) {
	eng := NewRuleEngine()
	cs := []Condition{
		{Kind: KindTemperature, Op: OpGTE, Value: 50, Required: true, Weight: 1, SeverityOnFail: 8},
	}
	d := eng.MakeDecision(Activity{ID: "x"}, EvaluateConditions(cs, basicHour(15)))
	if d.Factors[0].Severity != SeverityCritical {
		t.Errorf("severity = %v, want CRITICAL at fail severity 8", d.Factors[0].Severity)
	}
}

func TestMakeDecisionSummaryAndBlocking(t *testing.T) {
	eng := NewRuleEngine()
	a := Activity{ID: "test", Name: "Running"}

	good := eng.MakeDecision(a, EvaluationResult{Passed: true, Score: 90})
	if good.Summary != "Conditions are favorable for Running" {
		t.Errorf("summary = %q", good.Summary)
	}
	if len(good.BlockingFactors) != 0 || len(good.Recommendations) != 0 {
		t.Error("passing decision should carry no blockers or recommendations")
	}

	cs := []Condition{
		{Kind: KindTemperature, Op: OpGTE, Value: 50, Required: true, Weight: 1, SeverityOnFail: 8},
	}
	bad := eng.MakeDecision(a, EvaluateConditions(cs, basicHour(15)))
	if len(bad.BlockingFactors) != 1 || bad.BlockingFactors[0] != string(KindTemperature) {
		t.Errorf("blocking = %v, want the failed temperature condition", bad.BlockingFactors)
	}
	if !strings.Contains(bad.Summary, "Conditions not suitable") ||
		!strings.Contains(bad.Summary, string(KindTemperature)) {
		t.Errorf("summary = %q, want the blocking condition named", bad.Summary)
	}
	if len(bad.Recommendations) != 1 || !strings.HasPrefix(bad.Recommendations[0], "Check temperature") {
		t.Errorf("recommendations = %v", bad.Recommendations)
	}
}

func TestFindBestTimeFirstWinsTies(t *testing.T) {
	results := []EvaluationResult{
		{Time: testHour, Score: 90},
		{Time: testHour.Add(time.Hour), Score: 95},
		{Time: testHour.Add(2 * time.Hour), Score: 95},
	}
	best := FindBestTime(results, false)
	if best == nil || !best.Time.Equal(testHour.Add(time.Hour)) {
		t.Errorf("best = %+v, want the first 95 at hour 1", best)
	}
	if FindBestTime(nil, false) != nil {
		t.Error("empty results should return nil")
	}
}

func TestFindBestTimeRequiresPassing(t *testing.T) {
	results := []EvaluationResult{
		{Time: testHour, Score: 90, Passed: false},
		{Time: testHour.Add(time.Hour), Score: 60, Passed: true},
	}
	best := FindBestTime(results, true)
	if best == nil || !best.Passed || !almostEqual(best.Score, 60) {
		t.Errorf("best = %+v, want the passing 60-score hour", best)
	}
	if FindBestTime(results[:1], true) != nil {
		t.Error("no passing hour should return nil")
	}
}

func TestTranslateRequirements(t *testing.T) {
	t.Run("running template", func(t *testing.T) {
		cs := TranslateRequirements(RunningActivity().Requirements)

		kinds := map[ConditionKind]int{}
		for _, c := range cs {
			kinds[c.Kind]++
		}
		if kinds[KindTemperature] != 4 {
			t.Errorf("temperature conditions = %d, want min+max+both ideals", kinds[KindTemperature])
		}
		if kinds[KindWindSpeed] != 2 || kinds[KindPrecipProbability] != 1 {
			t.Errorf("wind=%d precip=%d, want 2 and 1", kinds[KindWindSpeed], kinds[KindPrecipProbability])
		}
	})

	t.Run("lone ideal bound", func(t *testing.T) {
		cs := TranslateRequirements(Requirements{
			Temperature: &TemperatureRange{IdealMinC: ptrF(10)},
		})
		if len(cs) != 1 {
			t.Fatalf("got %d conditions, want 1 from a lone ideal minimum", len(cs))
		}
		c := cs[0]
		if c.Op != OpGTE || c.Required || c.Weight != 0.5 || c.SeverityOnFail != 2 {
			t.Errorf("condition = %+v, want optional gte with weight 0.5", c)
		}
	})

	t.Run("astronomy template requires darkness", func(t *testing.T) {
		cs := TranslateRequirements(AstronomyActivity().Requirements)
		var sunBelow, astroDark bool
		for _, c := range cs {
			if c.Kind == KindSunAltitude && c.Op == OpLT && c.Value == 0 {
				sunBelow = c.Required && c.SeverityOnFail == 10
			}
			if c.Kind == KindSunAltitude && c.Op == OpLT && c.Value == -18 {
				astroDark = true
			}
		}
		if !sunBelow || !astroDark {
			t.Errorf("sunBelow=%v astroDark=%v, want both sun altitude conditions", sunBelow, astroDark)
		}
	})

	t.Run("darkness flag", func(t *testing.T) {
		cs := TranslateRequirements(Requirements{RequireDarkness: true})
		if len(cs) != 1 || cs[0].Kind != KindIsNight || !cs[0].Flag || !cs[0].Required {
			t.Errorf("got %+v, want one required is_night=true condition", cs)
		}
	})
}

func TestRuleEngineCache(t *testing.T) {
	eng := NewRuleEngine()
	a := RunningActivity()

	first := eng.ConditionsFor(a)

	// Same ID returns the cached set even if requirements changed.
	a.Requirements = Requirements{}
	if got := eng.ConditionsFor(a); len(got) != len(first) {
		t.Errorf("cached set has %d conditions, want %d", len(got), len(first))
	}

	eng.ClearCache()
	if got := eng.ConditionsFor(a); len(got) != 0 {
		t.Errorf("after clear got %d conditions, want retranslated empty set", len(got))
	}
}
