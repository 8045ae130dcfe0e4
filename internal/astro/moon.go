package astro

import (
	"math"
	"time"
)

const earthRadiusKm = 6378.0

// moonEquatorial returns the moon's right ascension and declination in
// degrees plus its distance in km, from a truncated lunar series keeping only
// the dominant evection-free terms.
func moonEquatorial(t time.Time) (raDeg, decDeg, distKm float64) {
	n := daysSinceJ2000(t)

	eclLon := wrap360(218.316 + 13.176396*n)
	meanAnom := wrap360(134.963+13.064993*n) * deg
	meanDist := wrap360(93.272+13.229350*n) * deg

	eclLon += 6.289 * math.Sin(meanAnom)
	eclLat := 5.128 * math.Sin(meanDist)
	distKm = 385001 - 20905*math.Cos(meanAnom)

	raDeg, decDeg = eclipticToEquatorial(eclLon, eclLat, obliquity(n))
	return raDeg, decDeg, distKm
}

// MoonPosition returns the moon's topocentric altitude and azimuth in
// degrees, with a parallax correction for the observer being on the Earth's
// surface rather than at its center.
func MoonPosition(t time.Time, lat, lon float64) (altDeg, azDeg float64) {
	ra, dec, dist := moonEquatorial(t)
	lst := siderealTime(daysSinceJ2000(t), lon)
	alt, az := equatorialToHorizontal(ra, dec, lst, lat)

	parallax := math.Asin(math.Cos(alt*deg) * earthRadiusKm / dist)
	return alt - parallax*rad, az
}

// sunMoonSeparation returns the angular separation between sun and moon in
// radians.
func sunMoonSeparation(t time.Time) float64 {
	sunRA, sunDec := sunEquatorial(t)
	moonRA, moonDec, _ := moonEquatorial(t)

	cosSep := math.Sin(sunDec*deg)*math.Sin(moonDec*deg) +
		math.Cos(sunDec*deg)*math.Cos(moonDec*deg)*math.Cos((sunRA-moonRA)*deg)
	if cosSep > 1 {
		cosSep = 1
	}
	if cosSep < -1 {
		cosSep = -1
	}
	return math.Acos(cosSep)
}

// MoonIllumination returns the illuminated fraction of the moon's disc as a
// percentage, 0 at new moon and 100 at full.
func MoonIllumination(t time.Time) float64 {
	sep := sunMoonSeparation(t)
	return (1 - math.Cos(sep)) / 2 * 100
}

// moonWaxing reports whether the moon is east of the sun, i.e. heading
// toward full.
func moonWaxing(t time.Time) bool {
	sunRA, _ := sunEquatorial(t)
	moonRA, _, _ := moonEquatorial(t)
	return wrap360(moonRA-sunRA) < 180
}

// MoonPhase returns the phase as a fraction of the synodic cycle, 0 at new
// moon, 0.5 at full, approaching 1 just before the next new moon.
func MoonPhase(t time.Time) float64 {
	f := MoonIllumination(t) / 100
	if moonWaxing(t) {
		return f / 2
	}
	return 1 - f/2
}

// MoonPhaseName names the phase for display
func MoonPhaseName(t time.Time) string {
	p := MoonPhase(t)
	switch {
	case p < 0.0625 || p >= 0.9375:
		return "New Moon"
	case p < 0.1875:
		return "Waxing Crescent"
	case p < 0.3125:
		return "First Quarter"
	case p < 0.4375:
		return "Waxing Gibbous"
	case p < 0.5625:
		return "Full Moon"
	case p < 0.6875:
		return "Waning Gibbous"
	case p < 0.8125:
		return "Last Quarter"
	default:
		return "Waning Crescent"
	}
}
