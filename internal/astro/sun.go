// Package astro computes sun and moon geometry from low-precision series
// expansions, good to a fraction of a degree. That is plenty for deciding
// whether a night is dark or a slot is after sunrise; it is not an ephemeris.
package astro

import (
	"math"
	"time"
)

const (
	deg = math.Pi / 180
	rad = 180 / math.Pi
)

// daysSinceJ2000 returns fractional days since the J2000.0 epoch
// (2000-01-01 12:00 UTC).
func daysSinceJ2000(t time.Time) float64 {
	return float64(t.UTC().UnixMilli())/86400000.0 - 10957.5
}

func wrap360(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}

// obliquity is the mean obliquity of the ecliptic in degrees
func obliquity(n float64) float64 {
	return 23.439 - 0.0000004*n
}

// eclipticToEquatorial converts ecliptic longitude/latitude (degrees) to
// right ascension and declination (degrees).
func eclipticToEquatorial(lonDeg, latDeg, epsDeg float64) (raDeg, decDeg float64) {
	lon := lonDeg * deg
	lat := latDeg * deg
	eps := epsDeg * deg

	ra := math.Atan2(math.Sin(lon)*math.Cos(eps)-math.Tan(lat)*math.Sin(eps), math.Cos(lon))
	dec := math.Asin(math.Sin(lat)*math.Cos(eps) + math.Cos(lat)*math.Sin(eps)*math.Sin(lon))
	return wrap360(ra * rad), dec * rad
}

// siderealTime returns the local sidereal time in degrees
func siderealTime(n, lonDeg float64) float64 {
	return wrap360(280.460 + 360.9856474*n + lonDeg)
}

// equatorialToHorizontal converts RA/Dec to altitude and azimuth (degrees,
// azimuth measured from north through east) for an observer.
func equatorialToHorizontal(raDeg, decDeg, lstDeg, latDeg float64) (altDeg, azDeg float64) {
	ha := (lstDeg - raDeg) * deg
	dec := decDeg * deg
	lat := latDeg * deg

	sinAlt := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(ha)
	alt := math.Asin(sinAlt)
	az := math.Atan2(-math.Sin(ha), math.Tan(dec)*math.Cos(lat)-math.Sin(lat)*math.Cos(ha))
	return alt * rad, wrap360(az * rad)
}

// sunEquatorial returns the sun's right ascension and declination in degrees
func sunEquatorial(t time.Time) (raDeg, decDeg float64) {
	n := daysSinceJ2000(t)

	meanLon := wrap360(280.460 + 0.9856474*n)
	meanAnom := wrap360(357.528+0.9856003*n) * deg
	eclLon := meanLon + 1.915*math.Sin(meanAnom) + 0.020*math.Sin(2*meanAnom)

	return eclipticToEquatorial(eclLon, 0, obliquity(n))
}

// SunPosition returns the sun's altitude and azimuth in degrees as seen from
// the given latitude and longitude.
func SunPosition(t time.Time, lat, lon float64) (altDeg, azDeg float64) {
	ra, dec := sunEquatorial(t)
	lst := siderealTime(daysSinceJ2000(t), lon)
	return equatorialToHorizontal(ra, dec, lst, lat)
}
