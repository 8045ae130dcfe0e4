package engine

import "fmt"

// ConditionKind identifies which forecast attribute a condition tests
type ConditionKind string

const (
	KindTemperature ConditionKind = "temperature"
	KindFeelsLike   ConditionKind = "feels_like"
	KindDewPoint    ConditionKind = "dew_point"
	KindHumidity    ConditionKind = "humidity"

	KindWindSpeed     ConditionKind = "wind_speed"
	KindWindGust      ConditionKind = "wind_gust"
	KindWindDirection ConditionKind = "wind_direction"

	KindCloudCover     ConditionKind = "cloud_cover"
	KindCloudCoverLow  ConditionKind = "cloud_cover_low"
	KindCloudCoverHigh ConditionKind = "cloud_cover_high"

	KindPrecipProbability ConditionKind = "precipitation_probability"
	KindPrecipAmount      ConditionKind = "precipitation_amount"

	KindVisibility ConditionKind = "visibility"
	KindUVIndex    ConditionKind = "uv_index"
	KindPressure   ConditionKind = "pressure"

	KindSunAltitude         ConditionKind = "sun_altitude"
	KindMoonAltitude        ConditionKind = "moon_altitude"
	KindMoonIllumination    ConditionKind = "moon_illumination"
	KindIsNight             ConditionKind = "is_night"
	KindIsAstronomicalNight ConditionKind = "is_astronomical_night"

	KindWeatherCondition ConditionKind = "weather_condition"
)

// Operator is a comparison operator for conditions
type Operator string

const (
	OpLT      Operator = "lt"
	OpLTE     Operator = "lte"
	OpGT      Operator = "gt"
	OpGTE     Operator = "gte"
	OpEQ      Operator = "eq"
	OpNEQ     Operator = "neq"
	OpIn      Operator = "in"
	OpNotIn   Operator = "not_in"
	OpBetween Operator = "between" // inclusive on both ends
)

// Condition is a single declarative test against one forecast attribute.
// Value carries the numeric threshold; boolean kinds (is_night,
// is_astronomical_night) use Flag with OpEQ/OpNEQ; the weather_condition kind
// uses Class for OpEQ/OpNEQ and Classes for OpIn/OpNotIn; OpBetween uses Range.
type Condition struct {
	Kind ConditionKind `json:"kind"`
	Op   Operator      `json:"op"`

	Value   float64          `json:"value,omitempty"`
	Range   [2]float64       `json:"range,omitempty"`
	Flag    bool             `json:"flag,omitempty"`
	Class   ConditionClass   `json:"class,omitempty"`
	Classes []ConditionClass `json:"classes,omitempty"`

	Description    string  `json:"description,omitempty"`
	Required       bool    `json:"required"`
	Weight         float64 `json:"weight"`
	SeverityOnFail float64 `json:"severity_on_fail"`
}

// ConditionResult is the outcome of evaluating one condition
type ConditionResult struct {
	Kind      ConditionKind  `json:"kind"`
	Op        Operator       `json:"op"`
	Passed    bool           `json:"passed"`
	HasActual bool           `json:"has_actual"`
	Actual    float64        `json:"actual,omitempty"`
	Class     ConditionClass `json:"class,omitempty"`
	Expected  float64        `json:"expected,omitempty"`
	Message   string         `json:"message"`
	Severity  float64        `json:"severity"`
}

// actual is the extracted value for one condition kind. Exactly one of the
// numeric and class representations is meaningful; known is false when the
// forecast lacks the underlying data.
type actual struct {
	num     float64
	class   ConditionClass
	isClass bool
	known   bool
}

func knownNum(v float64) actual { return actual{num: v, known: true} }
func knownPtr(v *float64) actual {
	if v == nil {
		return actual{}
	}
	return actual{num: *v, known: true}
}
func knownBool(v, ok bool) actual {
	if !ok {
		return actual{}
	}
	if v {
		return actual{num: 1, known: true}
	}
	return actual{num: 0, known: true}
}

// extract pulls the attribute this condition tests out of the forecast.
// Missing sub-records yield an unknown value, except precipitation fields
// which default to zero when the whole precipitation record is absent.
func (c Condition) extract(f HourlyForecast) actual {
	switch c.Kind {
	case KindTemperature:
		return knownNum(f.TemperatureC)
	case KindFeelsLike:
		return knownPtr(f.FeelsLikeC)
	case KindDewPoint:
		return knownPtr(f.DewPointC)
	case KindHumidity:
		return knownPtr(f.HumidityPercent)
	case KindWindSpeed:
		if f.Wind == nil {
			return actual{}
		}
		return knownNum(f.Wind.SpeedMps)
	case KindWindGust:
		if f.Wind == nil {
			return actual{}
		}
		return knownPtr(f.Wind.GustMps)
	case KindWindDirection:
		if f.Wind == nil {
			return actual{}
		}
		return knownPtr(f.Wind.DirectionDeg)
	case KindCloudCover:
		if f.Clouds == nil {
			return actual{}
		}
		return knownNum(f.Clouds.TotalPercent)
	case KindCloudCoverLow:
		if f.Clouds == nil {
			return actual{}
		}
		return knownPtr(f.Clouds.LowPercent)
	case KindCloudCoverHigh:
		if f.Clouds == nil {
			return actual{}
		}
		return knownPtr(f.Clouds.HighPercent)
	case KindPrecipProbability:
		if f.Precipitation == nil {
			return knownNum(0)
		}
		return knownNum(f.Precipitation.ProbabilityPercent)
	case KindPrecipAmount:
		if f.Precipitation == nil {
			return knownNum(0)
		}
		return knownPtr(f.Precipitation.AmountMM)
	case KindVisibility:
		return knownPtr(f.VisibilityM)
	case KindUVIndex:
		return knownPtr(f.UVIndex)
	case KindPressure:
		return knownPtr(f.PressureHpa)
	case KindSunAltitude:
		if f.Astro == nil {
			return actual{}
		}
		return knownPtr(f.Astro.SunAltitudeDeg)
	case KindMoonAltitude:
		if f.Astro == nil {
			return actual{}
		}
		return knownPtr(f.Astro.MoonAltitudeDeg)
	case KindMoonIllumination:
		if f.Astro == nil {
			return actual{}
		}
		return knownPtr(f.Astro.MoonIlluminationPercent)
	case KindIsNight:
		night, ok := f.Astro.IsNight()
		return knownBool(night, ok)
	case KindIsAstronomicalNight:
		night, ok := f.Astro.IsAstronomicalNight()
		return knownBool(night, ok)
	case KindWeatherCondition:
		return actual{class: f.Condition, isClass: true, known: true}
	}
	return actual{}
}

// Evaluate tests the condition against one forecast hour. An unknown actual
// value never passes and never panics.
func (c Condition) Evaluate(f HourlyForecast) ConditionResult {
	a := c.extract(f)
	passed := c.compare(a)

	res := ConditionResult{
		Kind:      c.Kind,
		Op:        c.Op,
		Passed:    passed,
		HasActual: a.known,
		Actual:    a.num,
		Class:     a.class,
		Expected:  c.expected(),
	}
	if !passed {
		res.Severity = c.SeverityOnFail
	}
	res.Message = c.message(a, passed)
	return res
}

func (c Condition) expected() float64 {
	if c.Flag {
		return 1
	}
	return c.Value
}

func (c Condition) compare(a actual) bool {
	if !a.known {
		return false
	}

	if a.isClass {
		switch c.Op {
		case OpEQ:
			return a.class == c.Class
		case OpNEQ:
			return a.class != c.Class
		case OpIn:
			return classIn(a.class, c.Classes)
		case OpNotIn:
			return !classIn(a.class, c.Classes)
		}
		return false
	}

	want := c.expected()
	switch c.Op {
	case OpLT:
		return a.num < want
	case OpLTE:
		return a.num <= want
	case OpGT:
		return a.num > want
	case OpGTE:
		return a.num >= want
	case OpEQ:
		return a.num == want
	case OpNEQ:
		return a.num != want
	case OpBetween:
		return c.Range[0] <= a.num && a.num <= c.Range[1]
	}
	return false
}

func classIn(class ConditionClass, set []ConditionClass) bool {
	for _, s := range set {
		if s == class {
			return true
		}
	}
	return false
}

func (c Condition) message(a actual, passed bool) string {
	var val string
	switch {
	case !a.known:
		val = "unknown"
	case a.isClass:
		val = string(a.class)
	default:
		val = fmt.Sprintf("%g", a.num)
	}
	if passed {
		return fmt.Sprintf("%s: %s meets requirement", c.Kind, val)
	}
	return fmt.Sprintf("%s: %s does not meet %s %g", c.Kind, val, c.Op, c.expected())
}
