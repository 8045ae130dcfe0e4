package astro

import (
	"testing"
	"time"

	"github.com/jthorne/skywatch/internal/engine"
)

var nyc = engine.Coordinates{Latitude: 40.7128, Longitude: -74.0060}

func within(t *testing.T, name string, got *time.Time, lo, hi time.Time) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s is nil, want between %v and %v", name, lo, hi)
	}
	if got.Before(lo) || got.After(hi) {
		t.Errorf("%s = %v, want between %v and %v", name, got, lo, hi)
	}
}

func TestTwilightNewYorkSolstice(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	tw := ComputeTwilight(day, nyc.Latitude, nyc.Longitude)

	// Sunrise around 09:25 UTC (05:25 EDT). The geometric-horizon model runs
	// a few minutes late against almanac values, which use refraction.
	within(t, "sunrise", tw.Sunrise,
		time.Date(2024, 6, 21, 9, 10, 0, 0, time.UTC),
		time.Date(2024, 6, 21, 9, 45, 0, 0, time.UTC))

	// The previous evening's sunset (June 20 EDT) falls at ~00:31 UTC inside
	// this UTC day.
	within(t, "sunset", tw.Sunset,
		time.Date(2024, 6, 21, 0, 10, 0, 0, time.UTC),
		time.Date(2024, 6, 21, 0, 55, 0, 0, time.UTC))
}

func TestSunAltitudeTimeMatchesSunrise(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	calc := NewCalculator(nyc)

	tw := calc.TwilightFor(day)
	if tw.Sunrise == nil {
		t.Fatal("sunrise is nil at mid-latitude")
	}

	// The horizon crossing and the twilight table solve the same event
	// through separate calls; they must agree to within the scan tolerance.
	got, ok := calc.SunAltitudeTime(day, 0, true)
	if !ok {
		t.Fatal("no horizon crossing found")
	}
	if diff := got.Sub(*tw.Sunrise); diff < -5*time.Minute || diff > 5*time.Minute {
		t.Errorf("sun altitude time %v differs from sunrise %v by %v", got, tw.Sunrise, diff)
	}

	// A 20 degree threshold is reached well after sunrise.
	high, ok := calc.SunAltitudeTime(day, 20, true)
	if !ok {
		t.Fatal("no 20 degree crossing found")
	}
	if !high.After(got) {
		t.Errorf("20 degree crossing %v should follow sunrise %v", high, got)
	}
}

func TestTwilightDawnOrdering(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	tw := ComputeTwilight(day, nyc.Latitude, nyc.Longitude)

	stages := []struct {
		name string
		at   *time.Time
	}{
		{"astronomical dawn", tw.AstronomicalDawn},
		{"nautical dawn", tw.NauticalDawn},
		{"civil dawn", tw.CivilDawn},
		{"sunrise", tw.Sunrise},
	}
	for i, s := range stages {
		if s.at == nil {
			t.Fatalf("%s is nil at mid-latitude", s.name)
		}
		if i > 0 && !stages[i-1].at.Before(*s.at) {
			t.Errorf("%s (%v) should precede %s (%v)", stages[i-1].name, stages[i-1].at, s.name, s.at)
		}
	}
}

func TestPolarNightHasNoSunrise(t *testing.T) {
	// Longyearbyen in late December: the sun never approaches the horizon.
	tw := ComputeTwilight(time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), 78.22, 15.63)
	if tw.Sunrise != nil || tw.Sunset != nil {
		t.Errorf("sunrise=%v sunset=%v, want neither during polar night", tw.Sunrise, tw.Sunset)
	}
	if tw.SolarNoon != nil {
		t.Error("solar noon should be omitted without sunrise and sunset")
	}
	if tw.CivilDawn != nil {
		t.Errorf("civil dawn = %v, want none", tw.CivilDawn)
	}
}

func TestFindCrossingDirections(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	alt := func(ts time.Time) float64 {
		a, _ := SunPosition(ts, nyc.Latitude, nyc.Longitude)
		return a
	}

	rise, ok := FindCrossing(alt, 0, day, day.Add(24*time.Hour), true)
	if !ok {
		t.Fatal("no rising crossing found")
	}
	set, ok := FindCrossing(alt, 0, day, day.Add(24*time.Hour), false)
	if !ok {
		t.Fatal("no setting crossing found")
	}

	if a := alt(rise.Add(10 * time.Minute)); a <= 0 {
		t.Errorf("altitude %v shortly after rising crossing, want positive", a)
	}
	if a := alt(set.Add(10 * time.Minute)); a >= 0 {
		t.Errorf("altitude %v shortly after setting crossing, want negative", a)
	}
}

func TestMoonIlluminationBounds(t *testing.T) {
	// Full moon 2024-06-22 01:08 UTC.
	if got := MoonIllumination(time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)); got < 85 {
		t.Errorf("illumination = %v near full moon, want > 85", got)
	}
	// New moon 2024-06-06 12:38 UTC.
	if got := MoonIllumination(time.Date(2024, 6, 6, 12, 0, 0, 0, time.UTC)); got > 10 {
		t.Errorf("illumination = %v near new moon, want < 10", got)
	}
}

func TestMoonPhaseFraction(t *testing.T) {
	full := MoonPhase(time.Date(2024, 6, 22, 1, 0, 0, 0, time.UTC))
	if full < 0.4 || full > 0.6 {
		t.Errorf("phase = %v near full moon, want ~0.5", full)
	}
	newish := MoonPhase(time.Date(2024, 6, 6, 12, 0, 0, 0, time.UTC))
	if newish > 0.1 && newish < 0.9 {
		t.Errorf("phase = %v near new moon, want near 0 or 1", newish)
	}
}

func TestCalculatorNightFlags(t *testing.T) {
	calc := NewCalculator(nyc)

	night := calc.At(time.Date(2024, 6, 21, 6, 0, 0, 0, time.UTC)) // 02:00 EDT
	if isNight, ok := night.IsNight(); !ok || !isNight {
		t.Errorf("2am EDT: isNight=%v ok=%v, want night", isNight, ok)
	}

	day := calc.At(time.Date(2024, 6, 21, 16, 0, 0, 0, time.UTC)) // noon EDT
	if isNight, ok := day.IsNight(); !ok || isNight {
		t.Errorf("noon EDT: isNight=%v ok=%v, want day", isNight, ok)
	}
	if day.SunAltitudeDeg == nil || *day.SunAltitudeDeg < 50 {
		t.Errorf("noon solstice sun altitude = %v, want above 50°", day.SunAltitudeDeg)
	}
}

func TestAnnotateForecast(t *testing.T) {
	calc := NewCalculator(nyc)
	fc := &engine.Forecast{Location: nyc}
	start := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		fc.Hourly = append(fc.Hourly, engine.HourlyForecast{Time: start.Add(time.Duration(i) * time.Hour)})
	}

	calc.Annotate(fc)
	for i, h := range fc.Hourly {
		if h.Astro == nil || h.Astro.SunAltitudeDeg == nil || h.Astro.MoonIlluminationPercent == nil {
			t.Fatalf("hour %d not annotated: %+v", i, h.Astro)
		}
		if h.Astro.Sunrise == nil {
			t.Errorf("hour %d missing sunrise from twilight table", i)
		}
	}
}
