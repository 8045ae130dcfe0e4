package engine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// GearItem is one recommended piece of clothing or equipment
type GearItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

// GearRule decides whether one item suits the conditions. All predicates are
// optional; a rule matches when every set predicate holds. Exclusive rules
// claim their whole category so lower-priority alternatives are skipped.
type GearRule struct {
	Item     string `json:"item"`
	Category string `json:"category"`

	MinTempC      *float64 `json:"min_temp_c,omitempty"`
	MaxTempC      *float64 `json:"max_temp_c,omitempty"`
	MinFeelsLikeC *float64 `json:"min_feels_like_c,omitempty"`
	MaxFeelsLikeC *float64 `json:"max_feels_like_c,omitempty"`
	MinWindMps    *float64 `json:"min_wind_mps,omitempty"`
	MaxPrecipPct  *float64 `json:"max_precip_pct,omitempty"`
	RequiresRain  bool     `json:"requires_rain,omitempty"`
	RequiresNight bool     `json:"requires_night,omitempty"`

	Priority  int  `json:"priority"`
	Exclusive bool `json:"exclusive"`
}

// rainThresholdPct is the precipitation chance at which rain gear kicks in
const rainThresholdPct = 30

// Matches reports whether the rule's item suits the given hour. Missing wind
// and precipitation data count as calm and dry; missing night data does not
// suppress night items.
func (r GearRule) Matches(h HourlyForecast) bool {
	temp := h.TemperatureC
	feels := temp
	if h.FeelsLikeC != nil {
		feels = *h.FeelsLikeC
	}
	var wind float64
	if h.Wind != nil {
		wind = h.Wind.SpeedMps
	}
	var precip float64
	if h.Precipitation != nil {
		precip = h.Precipitation.ProbabilityPercent
	}

	if r.MinTempC != nil && temp < *r.MinTempC {
		return false
	}
	if r.MaxTempC != nil && temp > *r.MaxTempC {
		return false
	}
	if r.MinFeelsLikeC != nil && feels < *r.MinFeelsLikeC {
		return false
	}
	if r.MaxFeelsLikeC != nil && feels > *r.MaxFeelsLikeC {
		return false
	}
	if r.MinWindMps != nil && wind < *r.MinWindMps {
		return false
	}
	if r.MaxPrecipPct != nil && precip > *r.MaxPrecipPct {
		return false
	}
	if r.RequiresRain && precip < rainThresholdPct {
		return false
	}
	if r.RequiresNight {
		if night, ok := h.Astro.IsNight(); ok && !night {
			return false
		}
	}
	return true
}

// GearRecommendation is the full kit suggestion for one hour
type GearRecommendation struct {
	Time       time.Time             `json:"time"`
	Items      []GearItem            `json:"items"`
	ByCategory map[string][]GearItem `json:"by_category"`
	Notes      []string              `json:"notes,omitempty"`
	Conditions string                `json:"conditions"`
}

// Recommender picks gear for an activity from a fixed rule set
type Recommender struct {
	rules []GearRule
}

func NewRecommender(rules []GearRule) *Recommender {
	return &Recommender{rules: rules}
}

// Recommend selects gear for one forecast hour. Matching rules are taken in
// priority order (lowest number first); once any rule claims a category, later
// exclusive rules for that category are skipped.
func (rec *Recommender) Recommend(h HourlyForecast) GearRecommendation {
	out := GearRecommendation{
		Time:       h.Time,
		ByCategory: make(map[string][]GearItem),
		Conditions: summarizeConditions(h),
	}

	matched := make([]GearRule, 0, len(rec.rules))
	for _, r := range rec.rules {
		if r.Matches(h) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority < matched[j].Priority
	})

	used := make(map[string]bool)
	for _, r := range matched {
		if r.Exclusive && used[r.Category] {
			continue
		}
		item := GearItem{Name: r.Item, Category: r.Category, Priority: r.Priority}
		out.Items = append(out.Items, item)
		out.ByCategory[r.Category] = append(out.ByCategory[r.Category], item)
		used[r.Category] = true
	}

	out.Notes = conditionNotes(h)
	return out
}

func conditionNotes(h HourlyForecast) []string {
	var notes []string
	if h.Precipitation != nil && h.Precipitation.ProbabilityPercent > 50 {
		notes = append(notes, "High chance of rain - waterproof gear recommended")
	}
	if h.Wind != nil && h.Wind.SpeedMps > 8 {
		notes = append(notes, "Windy conditions - wind-resistant layers helpful")
	}
	if h.UVIndex != nil && *h.UVIndex > 6 {
		notes = append(notes, "High UV - sun protection recommended")
	}
	return notes
}

func summarizeConditions(h HourlyForecast) string {
	s := fmt.Sprintf("%.1f°C (%.1f°F)", h.TemperatureC, h.TemperatureF())
	if h.FeelsLikeC != nil && math.Abs(*h.FeelsLikeC-h.TemperatureC) > 2 {
		s += fmt.Sprintf(", feels like %.1f°C", *h.FeelsLikeC)
	}
	if h.Wind != nil {
		s += fmt.Sprintf(", wind %.1f m/s", h.Wind.SpeedMps)
	}
	if h.Precipitation != nil && h.Precipitation.ProbabilityPercent > 10 {
		s += fmt.Sprintf(", %.0f%% chance of precipitation", h.Precipitation.ProbabilityPercent)
	}
	return s
}

// RunningGearRules is the stock rule set for runners
func RunningGearRules() []GearRule {
	return []GearRule{
		{Item: "Running Cap", Category: "head", MinTempC: ptrF(15), Priority: 3, Exclusive: true},
		{Item: "Beanie", Category: "head", MaxTempC: ptrF(5), Priority: 2, Exclusive: true},
		{Item: "Headband/Ear Warmer", Category: "head", MinTempC: ptrF(0), MaxTempC: ptrF(10), Priority: 2, Exclusive: true},

		{Item: "Singlet/Tank", Category: "torso_base", MinTempC: ptrF(22), Priority: 1, Exclusive: true},
		{Item: "T-Shirt", Category: "torso_base", MinTempC: ptrF(12), MaxTempC: ptrF(22), Priority: 2, Exclusive: true},
		{Item: "Long Sleeve", Category: "torso_base", MinTempC: ptrF(5), MaxTempC: ptrF(15), Priority: 3, Exclusive: true},
		{Item: "Thermal Base Layer", Category: "torso_base", MaxTempC: ptrF(5), Priority: 4, Exclusive: true},

		{Item: "Light Jacket/Vest", Category: "torso_outer", MaxTempC: ptrF(10), Priority: 3, Exclusive: true},
		{Item: "Wind Jacket", Category: "torso_outer", MaxTempC: ptrF(12), MinWindMps: ptrF(6), Priority: 2, Exclusive: true},
		{Item: "Rain Jacket", Category: "torso_outer", RequiresRain: true, Priority: 1, Exclusive: true},
		{Item: "Insulated Jacket", Category: "torso_outer", MaxTempC: ptrF(0), Priority: 4, Exclusive: true},

		{Item: "Light Gloves", Category: "hands", MinTempC: ptrF(0), MaxTempC: ptrF(8), Priority: 3, Exclusive: true},
		{Item: "Warm Gloves", Category: "hands", MaxTempC: ptrF(0), Priority: 2, Exclusive: true},

		{Item: "Shorts", Category: "legs", MinTempC: ptrF(12), Priority: 1, Exclusive: true},
		{Item: "3/4 Tights", Category: "legs", MinTempC: ptrF(5), MaxTempC: ptrF(15), Priority: 2, Exclusive: true},
		{Item: "Full Tights", Category: "legs", MaxTempC: ptrF(10), Priority: 3, Exclusive: true},
		{Item: "Thermal Tights", Category: "legs", MaxTempC: ptrF(0), Priority: 4, Exclusive: true},

		{Item: "Sunglasses", Category: "accessories", MinTempC: ptrF(10), MaxPrecipPct: ptrF(30), Priority: 2},
		{Item: "Reflective Vest", Category: "safety", RequiresNight: true, Priority: 1},
	}
}

// CyclingGearRules is the stock rule set for cyclists
func CyclingGearRules() []GearRule {
	return []GearRule{
		{Item: "Cycling Cap", Category: "head", MinTempC: ptrF(15), Priority: 3, Exclusive: true},
		{Item: "Thermal Skull Cap", Category: "head", MaxTempC: ptrF(10), Priority: 2, Exclusive: true},

		{Item: "Jersey", Category: "torso_base", MinTempC: ptrF(15), Priority: 2, Exclusive: true},
		{Item: "Long Sleeve Jersey", Category: "torso_base", MinTempC: ptrF(8), MaxTempC: ptrF(18), Priority: 3, Exclusive: true},
		{Item: "Thermal Base Layer", Category: "torso_base", MaxTempC: ptrF(10), Priority: 4, Exclusive: true},

		{Item: "Gilet/Vest", Category: "torso_outer", MaxTempC: ptrF(15), Priority: 3, Exclusive: true},
		{Item: "Wind Jacket", Category: "torso_outer", MaxTempC: ptrF(12), MinWindMps: ptrF(4), Priority: 2, Exclusive: true},
		{Item: "Rain Jacket", Category: "torso_outer", RequiresRain: true, Priority: 1, Exclusive: true},

		{Item: "Short Finger Gloves", Category: "hands", MinTempC: ptrF(15), Priority: 4, Exclusive: true},
		{Item: "Full Finger Gloves", Category: "hands", MinTempC: ptrF(8), MaxTempC: ptrF(18), Priority: 3, Exclusive: true},
		{Item: "Winter Gloves", Category: "hands", MaxTempC: ptrF(10), Priority: 2, Exclusive: true},

		{Item: "Bib Shorts", Category: "legs", MinTempC: ptrF(18), Priority: 1, Exclusive: true},
		{Item: "Knee Warmers", Category: "legs", MinTempC: ptrF(12), MaxTempC: ptrF(20), Priority: 2},
		{Item: "Bib Tights", Category: "legs", MaxTempC: ptrF(15), Priority: 3, Exclusive: true},
		{Item: "Thermal Tights", Category: "legs", MaxTempC: ptrF(5), Priority: 4, Exclusive: true},

		{Item: "Shoe Covers", Category: "feet", MaxTempC: ptrF(10), Priority: 2},
		{Item: "Waterproof Shoe Covers", Category: "feet", RequiresRain: true, Priority: 1},

		{Item: "Front & Rear Lights", Category: "safety", RequiresNight: true, Priority: 1},
	}
}
