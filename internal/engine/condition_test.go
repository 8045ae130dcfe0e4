package engine

import (
	"testing"
	"time"
)

var testHour = time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)

func basicHour(temp float64) HourlyForecast {
	return HourlyForecast{Time: testHour, TemperatureC: temp, Condition: ClassClear}
}

func fullHour(temp, wind, cloud, precip float64) HourlyForecast {
	h := basicHour(temp)
	h.Wind = &Wind{SpeedMps: wind}
	h.Clouds = &CloudCover{TotalPercent: cloud}
	h.Precipitation = &Precipitation{ProbabilityPercent: precip}
	return h
}

func TestConditionOperators(t *testing.T) {
	tests := []struct {
		name   string
		op     Operator
		value  float64
		actual float64
		want   bool
	}{
		{"lt pass", OpLT, 10, 5, true},
		{"lt fail at boundary", OpLT, 10, 10, false},
		{"lte pass at boundary", OpLTE, 10, 10, true},
		{"gt pass", OpGT, 0, 3, true},
		{"gte fail", OpGTE, 5, 4.9, false},
		{"eq pass", OpEQ, 7, 7, true},
		{"neq pass", OpNEQ, 7, 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Condition{Kind: KindTemperature, Op: tt.op, Value: tt.value}
			res := c.Evaluate(basicHour(tt.actual))
			if res.Passed != tt.want {
				t.Errorf("passed = %v, want %v", res.Passed, tt.want)
			}
			if !res.HasActual || res.Actual != tt.actual {
				t.Errorf("actual = %v (known %v), want %v", res.Actual, res.HasActual, tt.actual)
			}
		})
	}
}

func TestConditionBetweenInclusive(t *testing.T) {
	c := Condition{Kind: KindTemperature, Op: OpBetween, Range: [2]float64{10, 20}}
	for _, temp := range []float64{10, 15, 20} {
		if !c.Evaluate(basicHour(temp)).Passed {
			t.Errorf("between should include %v", temp)
		}
	}
	for _, temp := range []float64{9.9, 20.1} {
		if c.Evaluate(basicHour(temp)).Passed {
			t.Errorf("between should exclude %v", temp)
		}
	}
}

func TestConditionMissingValueFails(t *testing.T) {
	c := Condition{Kind: KindWindSpeed, Op: OpLTE, Value: 100}
	res := c.Evaluate(basicHour(15))
	if res.Passed {
		t.Error("condition with no wind data should not pass")
	}
	if res.HasActual {
		t.Error("missing wind should report no actual value")
	}
}

func TestConditionPrecipitationDefaultsToZero(t *testing.T) {
	c := Condition{Kind: KindPrecipProbability, Op: OpLTE, Value: 20}
	res := c.Evaluate(basicHour(15))
	if !res.Passed {
		t.Error("missing precipitation record should count as 0%")
	}
	if !res.HasActual || res.Actual != 0 {
		t.Errorf("actual = %v (known %v), want known 0", res.Actual, res.HasActual)
	}
}

func TestConditionNightFlags(t *testing.T) {
	night := basicHour(10)
	sunAlt := -5.0
	night.Astro = &AstroData{SunAltitudeDeg: &sunAlt}

	c := Condition{Kind: KindIsNight, Op: OpEQ, Flag: true}
	if !c.Evaluate(night).Passed {
		t.Error("sun at -5 deg should count as night")
	}

	c.Flag = false
	if c.Evaluate(night).Passed {
		t.Error("night hour should fail a daylight requirement")
	}

	if c.Evaluate(basicHour(10)).Passed {
		t.Error("unknown night state should never pass")
	}
}

func TestConditionWeatherClass(t *testing.T) {
	h := basicHour(15)
	h.Condition = ClassLightRain

	c := Condition{Kind: KindWeatherCondition, Op: OpIn, Classes: []ConditionClass{ClassClear, ClassLightRain}}
	if !c.Evaluate(h).Passed {
		t.Error("light_rain should match the allowed set")
	}

	c = Condition{Kind: KindWeatherCondition, Op: OpNotIn, Classes: []ConditionClass{ClassThunderstorm, ClassHail}}
	if !c.Evaluate(h).Passed {
		t.Error("light_rain should pass a not_in check against storms")
	}

	c = Condition{Kind: KindWeatherCondition, Op: OpEQ, Class: ClassClear}
	if c.Evaluate(h).Passed {
		t.Error("light_rain should not equal clear")
	}
}
