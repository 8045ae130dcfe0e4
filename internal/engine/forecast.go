package engine

import (
	"math"
	"time"
)

// ConditionClass is the broad classification of the weather for an hour
type ConditionClass string

const (
	ClassClear        ConditionClass = "clear"
	ClassPartlyCloudy ConditionClass = "partly_cloudy"
	ClassCloudy       ConditionClass = "cloudy"
	ClassOvercast     ConditionClass = "overcast"
	ClassFog          ConditionClass = "fog"
	ClassLightRain    ConditionClass = "light_rain"
	ClassRain         ConditionClass = "rain"
	ClassHeavyRain    ConditionClass = "heavy_rain"
	ClassDrizzle      ConditionClass = "drizzle"
	ClassThunderstorm ConditionClass = "thunderstorm"
	ClassSnow         ConditionClass = "snow"
	ClassLightSnow    ConditionClass = "light_snow"
	ClassHeavySnow    ConditionClass = "heavy_snow"
	ClassSleet        ConditionClass = "sleet"
	ClassHail         ConditionClass = "hail"
	ClassWindy        ConditionClass = "windy"
	ClassUnknown      ConditionClass = "unknown"
)

// Coordinates is a geographic location
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a named observing site
type Location struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Timezone    string      `json:"timezone,omitempty"`
	ElevationM  float64     `json:"elevation_m,omitempty"`
	IsDefault   bool        `json:"is_default"`
}

// CloudCover holds cloud cover percentages by layer
type CloudCover struct {
	TotalPercent float64  `json:"total_percent"`
	LowPercent   *float64 `json:"low_percent,omitempty"`
	MidPercent   *float64 `json:"mid_percent,omitempty"`
	HighPercent  *float64 `json:"high_percent,omitempty"`
}

// IsClear reports whether the sky is considered clear (total cover at or below threshold)
func (c CloudCover) IsClear(threshold float64) bool {
	return c.TotalPercent <= threshold
}

// Precipitation holds precipitation probability and expected amount
type Precipitation struct {
	ProbabilityPercent float64  `json:"probability_percent"`
	AmountMM           *float64 `json:"amount_mm,omitempty"`
	Type               string   `json:"type,omitempty"`
}

// Wind holds wind speed, gust and direction
type Wind struct {
	SpeedMps     float64  `json:"speed_mps"`
	GustMps      *float64 `json:"gust_mps,omitempty"`
	DirectionDeg *float64 `json:"direction_deg,omitempty"`
}

// SpeedMph returns wind speed in miles per hour
func (w Wind) SpeedMph() float64 { return w.SpeedMps * 2.237 }

// SpeedKph returns wind speed in kilometers per hour
func (w Wind) SpeedKph() float64 { return w.SpeedMps * 3.6 }

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// DirectionCardinal returns the 16-point compass direction, or "" if unknown
func (w Wind) DirectionCardinal() string {
	if w.DirectionDeg == nil {
		return ""
	}
	deg := math.Mod(*w.DirectionDeg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % 16
	return cardinals[idx]
}

// AstroData is the astronomical snapshot attached to a forecast hour.
// All fields are optional; a forecast without astronomy annotation carries nil.
type AstroData struct {
	Sunrise   *time.Time `json:"sunrise,omitempty"`
	Sunset    *time.Time `json:"sunset,omitempty"`
	SolarNoon *time.Time `json:"solar_noon,omitempty"`

	CivilTwilightStart        *time.Time `json:"civil_twilight_start,omitempty"`
	CivilTwilightEnd          *time.Time `json:"civil_twilight_end,omitempty"`
	NauticalTwilightStart     *time.Time `json:"nautical_twilight_start,omitempty"`
	NauticalTwilightEnd       *time.Time `json:"nautical_twilight_end,omitempty"`
	AstronomicalTwilightStart *time.Time `json:"astronomical_twilight_start,omitempty"`
	AstronomicalTwilightEnd   *time.Time `json:"astronomical_twilight_end,omitempty"`

	SunAltitudeDeg *float64 `json:"sun_altitude_deg,omitempty"`
	SunAzimuthDeg  *float64 `json:"sun_azimuth_deg,omitempty"`

	Moonrise                *time.Time `json:"moonrise,omitempty"`
	Moonset                 *time.Time `json:"moonset,omitempty"`
	MoonPhase               *float64   `json:"moon_phase,omitempty"`
	MoonIlluminationPercent *float64   `json:"moon_illumination_percent,omitempty"`
	MoonAltitudeDeg         *float64   `json:"moon_altitude_deg,omitempty"`
}

// IsNight reports whether the sun is below the horizon. The second return
// value is false when the sun altitude is unknown.
func (a *AstroData) IsNight() (bool, bool) {
	if a == nil || a.SunAltitudeDeg == nil {
		return false, false
	}
	return *a.SunAltitudeDeg < 0, true
}

// IsAstronomicalNight reports whether the sun is below -18 degrees.
func (a *AstroData) IsAstronomicalNight() (bool, bool) {
	if a == nil || a.SunAltitudeDeg == nil {
		return false, false
	}
	return *a.SunAltitudeDeg < -18, true
}

// HourlyForecast is the weather for a single hour, in SI units.
// Sub-records are nil when the provider did not supply them.
type HourlyForecast struct {
	Time      time.Time      `json:"time"`
	Condition ConditionClass `json:"condition"`

	TemperatureC float64  `json:"temperature_c"`
	FeelsLikeC   *float64 `json:"feels_like_c,omitempty"`
	DewPointC    *float64 `json:"dew_point_c,omitempty"`

	HumidityPercent *float64 `json:"humidity_percent,omitempty"`

	Clouds        *CloudCover    `json:"clouds,omitempty"`
	Precipitation *Precipitation `json:"precipitation,omitempty"`
	Wind          *Wind          `json:"wind,omitempty"`

	PressureHpa *float64 `json:"pressure_hpa,omitempty"`
	VisibilityM *float64 `json:"visibility_m,omitempty"`
	UVIndex     *float64 `json:"uv_index,omitempty"`

	Astro *AstroData `json:"astro,omitempty"`
}

// TemperatureF returns the temperature in Fahrenheit
func (h HourlyForecast) TemperatureF() float64 {
	return h.TemperatureC*9/5 + 32
}

// Forecast is a chronological hourly forecast for one location
type Forecast struct {
	Location    Coordinates      `json:"location"`
	GeneratedAt time.Time        `json:"generated_at"`
	Provider    string           `json:"provider"`
	Timezone    string           `json:"timezone,omitempty"`
	ElevationM  float64          `json:"elevation_m,omitempty"`
	Hourly      []HourlyForecast `json:"hourly"`
}

// At returns the hour nearest to t, or nil if no hour lies within 30 minutes
func (f *Forecast) At(t time.Time) *HourlyForecast {
	if len(f.Hourly) == 0 {
		return nil
	}
	best := 0
	bestDiff := absDuration(f.Hourly[0].Time.Sub(t))
	for i := 1; i < len(f.Hourly); i++ {
		if d := absDuration(f.Hourly[i].Time.Sub(t)); d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	if bestDiff > 30*time.Minute {
		return nil
	}
	return &f.Hourly[best]
}

// Range returns all hours with start <= time <= end
func (f *Forecast) Range(start, end time.Time) []HourlyForecast {
	out := []HourlyForecast{}
	for _, h := range f.Hourly {
		if !h.Time.Before(start) && !h.Time.After(end) {
			out = append(out, h)
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
