package astro

import (
	"sync"
	"time"

	"github.com/jthorne/skywatch/internal/engine"
)

// Calculator computes astronomical context for one observing site. Twilight
// tables are cached per UTC date since every hour of a day shares them.
type Calculator struct {
	lat, lon float64

	mu       sync.Mutex
	twilight map[string]TwilightTimes
}

func NewCalculator(loc engine.Coordinates) *Calculator {
	return &Calculator{
		lat:      loc.Latitude,
		lon:      loc.Longitude,
		twilight: make(map[string]TwilightTimes),
	}
}

// TwilightFor returns the twilight table for the UTC date containing t
func (c *Calculator) TwilightFor(t time.Time) TwilightTimes {
	key := t.UTC().Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()
	if tw, ok := c.twilight[key]; ok {
		return tw
	}
	tw := ComputeTwilight(t, c.lat, c.lon)
	c.twilight[key] = tw
	return tw
}

// SunAltitudeTime finds when the sun crosses targetDeg at this site within
// the UTC day containing date
func (c *Calculator) SunAltitudeTime(date time.Time, targetDeg float64, rising bool) (time.Time, bool) {
	return SunAltitudeTime(date, c.lat, c.lon, targetDeg, rising)
}

// At computes the full astronomical picture for one moment
func (c *Calculator) At(t time.Time) engine.AstroData {
	tw := c.TwilightFor(t)

	sunAlt, sunAz := SunPosition(t, c.lat, c.lon)
	moonAlt, _ := MoonPosition(t, c.lat, c.lon)
	illum := MoonIllumination(t)
	phase := MoonPhase(t)

	return engine.AstroData{
		Sunrise:   tw.Sunrise,
		Sunset:    tw.Sunset,
		SolarNoon: tw.SolarNoon,

		CivilTwilightStart:        tw.CivilDawn,
		CivilTwilightEnd:          tw.CivilDusk,
		NauticalTwilightStart:     tw.NauticalDawn,
		NauticalTwilightEnd:       tw.NauticalDusk,
		AstronomicalTwilightStart: tw.AstronomicalDawn,
		AstronomicalTwilightEnd:   tw.AstronomicalDusk,

		SunAltitudeDeg: &sunAlt,
		SunAzimuthDeg:  &sunAz,

		Moonrise:                tw.Moonrise,
		Moonset:                 tw.Moonset,
		MoonPhase:               &phase,
		MoonIlluminationPercent: &illum,
		MoonAltitudeDeg:         &moonAlt,
	}
}

// Annotate attaches astronomical data to every hour of a forecast in place
func (c *Calculator) Annotate(fc *engine.Forecast) {
	for i := range fc.Hourly {
		data := c.At(fc.Hourly[i].Time)
		fc.Hourly[i].Astro = &data
	}
}
