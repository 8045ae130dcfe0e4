package engine

// ActivityCategory is the high-level grouping of an activity
type ActivityCategory string

const (
	CategoryExercise   ActivityCategory = "exercise"
	CategoryAstronomy  ActivityCategory = "astronomy"
	CategoryRecreation ActivityCategory = "outdoor_recreation"
	CategoryWork       ActivityCategory = "outdoor_work"
	CategoryCustom     ActivityCategory = "custom"
)

// TemperatureRange holds hard and ideal temperature bounds in Celsius
type TemperatureRange struct {
	MinC      *float64 `json:"min_c,omitempty"`
	MaxC      *float64 `json:"max_c,omitempty"`
	IdealMinC *float64 `json:"ideal_min_c,omitempty"`
	IdealMaxC *float64 `json:"ideal_max_c,omitempty"`
}

// WindLimits holds wind speed constraints in m/s
type WindLimits struct {
	MaxSpeedMps      *float64 `json:"max_speed_mps,omitempty"`
	MaxGustMps       *float64 `json:"max_gust_mps,omitempty"`
	IdealMaxSpeedMps *float64 `json:"ideal_max_speed_mps,omitempty"`
}

// CloudLimits holds cloud cover constraints in percent
type CloudLimits struct {
	MaxTotalPercent      *float64 `json:"max_total_percent,omitempty"`
	IdealMaxTotalPercent *float64 `json:"ideal_max_total_percent,omitempty"`
}

// PrecipLimits holds precipitation constraints
type PrecipLimits struct {
	MaxProbabilityPercent *float64 `json:"max_probability_percent,omitempty"`
	AllowLightRain        bool     `json:"allow_light_rain,omitempty"`
	AllowSnow             bool     `json:"allow_snow,omitempty"`
}

// SunLimits holds sun position constraints in degrees
type SunLimits struct {
	MinAltitudeDeg              *float64 `json:"min_altitude_deg,omitempty"`
	MaxAltitudeDeg              *float64 `json:"max_altitude_deg,omitempty"`
	RequireBelowHorizon         bool     `json:"require_below_horizon,omitempty"`
	RequireAstronomicalTwilight bool     `json:"require_astronomical_twilight,omitempty"`
}

// MoonLimits holds moon constraints
type MoonLimits struct {
	MaxIlluminationPercent *float64 `json:"max_illumination_percent,omitempty"`
	RequireBelowHorizon    bool     `json:"require_below_horizon,omitempty"`
}

// Requirements is the full constraint tree for an activity. Absent (nil)
// fields mean "don't care" and generate no conditions.
type Requirements struct {
	Temperature   *TemperatureRange `json:"temperature,omitempty"`
	Wind          *WindLimits       `json:"wind,omitempty"`
	Clouds        *CloudLimits      `json:"clouds,omitempty"`
	Precipitation *PrecipLimits     `json:"precipitation,omitempty"`

	MinVisibilityM *float64 `json:"min_visibility_m,omitempty"`

	Sun  *SunLimits  `json:"sun,omitempty"`
	Moon *MoonLimits `json:"moon,omitempty"`

	MaxUVIndex      *float64 `json:"max_uv_index,omitempty"`
	RequireDaylight bool     `json:"require_daylight,omitempty"`
	RequireDarkness bool     `json:"require_darkness,omitempty"`
}

// Activity is a named, configurable outdoor activity
type Activity struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Category     ActivityCategory `json:"category"`
	Requirements Requirements     `json:"requirements"`
	Icon         string           `json:"icon,omitempty"`
	Keywords     []string         `json:"keywords,omitempty"`
	Enabled      bool             `json:"enabled"`
}

func ptrF(v float64) *float64 { return &v }

// RunningActivity returns the built-in running template
func RunningActivity() Activity {
	return Activity{
		ID:       "running",
		Name:     "Running",
		Category: CategoryExercise,
		Requirements: Requirements{
			Temperature: &TemperatureRange{
				MinC:      ptrF(-15),
				MaxC:      ptrF(35),
				IdealMinC: ptrF(10),
				IdealMaxC: ptrF(20),
			},
			Wind: &WindLimits{
				MaxSpeedMps:      ptrF(15),
				IdealMaxSpeedMps: ptrF(7),
			},
			Precipitation: &PrecipLimits{
				MaxProbabilityPercent: ptrF(50),
				AllowLightRain:        true,
			},
		},
		Keywords: []string{"run", "running", "jog", "jogging"},
		Enabled:  true,
	}
}

// CyclingActivity returns the built-in cycling template
func CyclingActivity() Activity {
	return Activity{
		ID:       "cycling",
		Name:     "Cycling",
		Category: CategoryExercise,
		Requirements: Requirements{
			Temperature: &TemperatureRange{
				MinC:      ptrF(-5),
				MaxC:      ptrF(38),
				IdealMinC: ptrF(15),
				IdealMaxC: ptrF(28),
			},
			Wind: &WindLimits{
				MaxSpeedMps:      ptrF(12),
				MaxGustMps:       ptrF(18),
				IdealMaxSpeedMps: ptrF(5),
			},
			Precipitation: &PrecipLimits{
				MaxProbabilityPercent: ptrF(30),
			},
		},
		Keywords: []string{"bike", "cycling", "bicycle", "ride"},
		Enabled:  true,
	}
}

// AstronomyActivity returns the built-in deep-sky observing template
func AstronomyActivity() Activity {
	return Activity{
		ID:       "astronomy",
		Name:     "Astronomy Observing",
		Category: CategoryAstronomy,
		Requirements: Requirements{
			Temperature: &TemperatureRange{
				MinC: ptrF(-20),
				MaxC: ptrF(35),
			},
			Wind: &WindLimits{
				MaxSpeedMps:      ptrF(8),
				MaxGustMps:       ptrF(12),
				IdealMaxSpeedMps: ptrF(4),
			},
			Clouds: &CloudLimits{
				MaxTotalPercent:      ptrF(30),
				IdealMaxTotalPercent: ptrF(10),
			},
			Precipitation: &PrecipLimits{
				MaxProbabilityPercent: ptrF(10),
			},
			Sun: &SunLimits{
				RequireBelowHorizon:         true,
				RequireAstronomicalTwilight: true,
			},
			Moon: &MoonLimits{
				MaxIlluminationPercent: ptrF(50),
			},
		},
		Keywords: []string{"astronomy", "observing", "telescope", "stargazing"},
		Enabled:  true,
	}
}

// SolarObservationActivity returns the built-in solar imaging template
func SolarObservationActivity() Activity {
	return Activity{
		ID:       "solar_observation",
		Name:     "Solar Observation",
		Category: CategoryAstronomy,
		Requirements: Requirements{
			Temperature: &TemperatureRange{
				MinC: ptrF(0),
				MaxC: ptrF(38),
			},
			Wind: &WindLimits{
				MaxSpeedMps:      ptrF(6),
				MaxGustMps:       ptrF(10),
				IdealMaxSpeedMps: ptrF(3),
			},
			Clouds: &CloudLimits{
				MaxTotalPercent:      ptrF(20),
				IdealMaxTotalPercent: ptrF(5),
			},
			Sun: &SunLimits{
				MinAltitudeDeg: ptrF(20),
			},
		},
		Keywords: []string{"solar", "sun", "h-alpha", "sun imaging"},
		Enabled:  true,
	}
}

// DefaultActivities returns the built-in activity templates
func DefaultActivities() []Activity {
	return []Activity{
		RunningActivity(),
		CyclingActivity(),
		AstronomyActivity(),
		SolarObservationActivity(),
	}
}
