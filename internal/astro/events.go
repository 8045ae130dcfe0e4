package astro

import "time"

// AltitudeFunc gives a body's altitude in degrees at a moment
type AltitudeFunc func(time.Time) float64

const (
	scanStep        = 15 * time.Minute
	bisectTolerance = time.Minute
)

// FindCrossing locates the first time in [start, end] when the altitude
// crosses target in the requested direction. It scans in 15-minute steps for
// a bracketing interval, then bisects it down to under a minute. The second
// return is false when no crossing occurs in the window, as in polar day or
// polar night.
func FindCrossing(f AltitudeFunc, target float64, start, end time.Time, rising bool) (time.Time, bool) {
	prev := f(start)
	for t := start.Add(scanStep); !t.After(end); t = t.Add(scanStep) {
		cur := f(t)
		if brackets(prev, cur, target, rising) {
			return bisect(f, target, t.Add(-scanStep), t, rising), true
		}
		prev = cur
	}
	return time.Time{}, false
}

func brackets(prev, cur, target float64, rising bool) bool {
	if rising {
		return prev < target && cur >= target
	}
	return prev > target && cur <= target
}

func bisect(f AltitudeFunc, target float64, lo, hi time.Time, rising bool) time.Time {
	for hi.Sub(lo) > bisectTolerance {
		mid := lo.Add(hi.Sub(lo) / 2)
		if brackets(f(lo), f(mid), target, rising) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2)
}

// TwilightTimes holds one UTC date's sun and moon events. Nil fields mean
// the event does not occur that day at that latitude.
type TwilightTimes struct {
	Date time.Time `json:"date"`

	Sunrise   *time.Time `json:"sunrise,omitempty"`
	Sunset    *time.Time `json:"sunset,omitempty"`
	SolarNoon *time.Time `json:"solar_noon,omitempty"`

	CivilDawn        *time.Time `json:"civil_dawn,omitempty"`
	CivilDusk        *time.Time `json:"civil_dusk,omitempty"`
	NauticalDawn     *time.Time `json:"nautical_dawn,omitempty"`
	NauticalDusk     *time.Time `json:"nautical_dusk,omitempty"`
	AstronomicalDawn *time.Time `json:"astronomical_dawn,omitempty"`
	AstronomicalDusk *time.Time `json:"astronomical_dusk,omitempty"`

	Moonrise *time.Time `json:"moonrise,omitempty"`
	Moonset  *time.Time `json:"moonset,omitempty"`
}

// twilight sun-altitude thresholds in degrees
const (
	horizonDeg      = 0.0
	civilDeg        = -6.0
	nauticalDeg     = -12.0
	astronomicalDeg = -18.0
)

// SunAltitudeTime finds when the sun crosses a target altitude within the UTC
// calendar day containing date. Useful for planning around a minimum solar
// elevation, like a 20° imaging limit. The second return is false when the
// sun never crosses that altitude during the day.
func SunAltitudeTime(date time.Time, lat, lon, targetDeg float64, rising bool) (time.Time, bool) {
	day := time.Date(date.UTC().Year(), date.UTC().Month(), date.UTC().Day(), 0, 0, 0, 0, time.UTC)
	sunAlt := func(t time.Time) float64 {
		alt, _ := SunPosition(t, lat, lon)
		return alt
	}
	return FindCrossing(sunAlt, targetDeg, day, day.Add(24*time.Hour), rising)
}

// ComputeTwilight finds all sun and moon horizon events for the UTC calendar
// day containing date. Solar noon is approximated as the midpoint of sunrise
// and sunset and is omitted when either is missing.
func ComputeTwilight(date time.Time, lat, lon float64) TwilightTimes {
	day := time.Date(date.UTC().Year(), date.UTC().Month(), date.UTC().Day(), 0, 0, 0, 0, time.UTC)
	end := day.Add(24 * time.Hour)

	sunAlt := func(t time.Time) float64 {
		alt, _ := SunPosition(t, lat, lon)
		return alt
	}
	moonAlt := func(t time.Time) float64 {
		alt, _ := MoonPosition(t, lat, lon)
		return alt
	}

	cross := func(f AltitudeFunc, target float64, rising bool) *time.Time {
		t, ok := FindCrossing(f, target, day, end, rising)
		if !ok {
			return nil
		}
		return &t
	}

	tw := TwilightTimes{
		Date:             day,
		Sunrise:          cross(sunAlt, horizonDeg, true),
		Sunset:           cross(sunAlt, horizonDeg, false),
		CivilDawn:        cross(sunAlt, civilDeg, true),
		CivilDusk:        cross(sunAlt, civilDeg, false),
		NauticalDawn:     cross(sunAlt, nauticalDeg, true),
		NauticalDusk:     cross(sunAlt, nauticalDeg, false),
		AstronomicalDawn: cross(sunAlt, astronomicalDeg, true),
		AstronomicalDusk: cross(sunAlt, astronomicalDeg, false),
		Moonrise:         cross(moonAlt, horizonDeg, true),
		Moonset:          cross(moonAlt, horizonDeg, false),
	}

	if tw.Sunrise != nil && tw.Sunset != nil {
		noon := tw.Sunrise.Add(tw.Sunset.Sub(*tw.Sunrise) / 2)
		tw.SolarNoon = &noon
	}
	return tw
}
