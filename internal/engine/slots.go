package engine

import (
	"sort"
	"time"
)

// SlotOptions tunes the time slot search
type SlotOptions struct {
	MinDuration       time.Duration `json:"min_duration"`
	PreferredDuration time.Duration `json:"preferred_duration"`
	MaxSlots          int           `json:"max_slots"`
	RequirePassing    bool          `json:"require_passing"`
}

// DefaultSlotOptions asks for passing windows of at least an hour, ideally
// two, and returns the top three.
func DefaultSlotOptions() SlotOptions {
	return SlotOptions{
		MinDuration:       time.Hour,
		PreferredDuration: 2 * time.Hour,
		MaxSlots:          3,
		RequirePassing:    true,
	}
}

// TimeSlot is one contiguous window of suitable hours
type TimeSlot struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours int       `json:"duration_hours"`
	Score         float64   `json:"score"`
	AverageScore  float64   `json:"average_score"`
	IsOptimal     bool      `json:"is_optimal"`
	Advantages    []string  `json:"advantages,omitempty"`
	Disadvantages []string  `json:"disadvantages,omitempty"`
}

// TimeSlotRecommendation is the ranked result of a slot search
type TimeSlotRecommendation struct {
	Activity        string     `json:"activity"`
	Slots           []TimeSlot `json:"slots"`
	NoSuitableSlots bool       `json:"no_suitable_slots"`
	Reason          string     `json:"reason,omitempty"`
}

// SlotFinder searches a forecast for the best contiguous windows to do an
// activity
type SlotFinder struct {
	engine *RuleEngine
}

func NewSlotFinder(engine *RuleEngine) *SlotFinder {
	return &SlotFinder{engine: engine}
}

// FindSlots scans the forecast left to right, grouping consecutive qualifying
// hours into non-overlapping candidate windows, then ranks them by average
// score weighted for duration. The top slot is flagged optimal.
func (s *SlotFinder) FindSlots(a Activity, fc *Forecast, opts SlotOptions) TimeSlotRecommendation {
	rec := TimeSlotRecommendation{Activity: a.Name}
	if fc == nil || len(fc.Hourly) == 0 {
		rec.NoSuitableSlots = true
		rec.Reason = "No forecast data available"
		return rec
	}

	results := s.engine.EvaluateForecast(a, fc)
	minHours := int(opts.MinDuration.Seconds() / 3600)

	qualifies := func(i int) bool {
		return results[i].Passed || !opts.RequirePassing
	}

	var slots []TimeSlot
	for i := 0; i < len(results); {
		if !qualifies(i) {
			i++
			continue
		}
		end := i
		for end+1 < len(results) && qualifies(end+1) {
			end++
		}
		hours := end - i + 1
		if hours >= minHours {
			slots = append(slots, s.buildSlot(fc.Hourly[i:end+1], results[i:end+1], opts))
		}
		i = end + 1
	}

	if len(slots) == 0 {
		rec.NoSuitableSlots = true
		rec.Reason = "No time slots meet the requirements"
		return rec
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Score > slots[j].Score
	})
	if opts.MaxSlots > 0 && len(slots) > opts.MaxSlots {
		slots = slots[:opts.MaxSlots]
	}
	slots[0].IsOptimal = true
	rec.Slots = slots
	return rec
}

func (s *SlotFinder) buildSlot(hours []HourlyForecast, results []EvaluationResult, opts SlotOptions) TimeSlot {
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	avg := sum / float64(len(results))

	actual := time.Duration(len(hours)) * time.Hour
	var factor float64
	if actual >= opts.PreferredDuration {
		factor = float64(opts.PreferredDuration) / float64(actual)
		if factor > 1 {
			factor = 1
		}
		factor *= 1.1
	} else {
		factor = float64(actual) / float64(opts.PreferredDuration)
	}

	score := avg * factor
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	slot := TimeSlot{
		StartTime:     hours[0].Time,
		EndTime:       hours[len(hours)-1].Time.Add(time.Hour),
		DurationHours: len(hours),
		Score:         score,
		AverageScore:  avg,
	}
	slot.Advantages, slot.Disadvantages = describeSlot(hours)
	return slot
}

// describeSlot summarizes the window's weather as plain-language pros and cons
func describeSlot(hours []HourlyForecast) (advantages, disadvantages []string) {
	var tempSum float64
	var cloudSum, windSum float64
	var cloudN, windN int
	var maxPrecip float64

	for _, h := range hours {
		tempSum += h.TemperatureC
		if h.Clouds != nil {
			cloudSum += h.Clouds.TotalPercent
			cloudN++
		}
		if h.Wind != nil {
			windSum += h.Wind.SpeedMps
			windN++
		}
		if h.Precipitation != nil && h.Precipitation.ProbabilityPercent > maxPrecip {
			maxPrecip = h.Precipitation.ProbabilityPercent
		}
	}

	avgTemp := tempSum / float64(len(hours))
	switch {
	case avgTemp >= 15 && avgTemp <= 25:
		advantages = append(advantages, "Comfortable temperature")
	case avgTemp < 5:
		disadvantages = append(disadvantages, "Cold conditions")
	case avgTemp > 30:
		disadvantages = append(disadvantages, "Hot conditions")
	}

	if cloudN > 0 {
		avgCloud := cloudSum / float64(cloudN)
		if avgCloud < 20 {
			advantages = append(advantages, "Clear skies")
		} else if avgCloud > 70 {
			disadvantages = append(disadvantages, "Cloudy conditions")
		}
	}

	if maxPrecip < 10 {
		advantages = append(advantages, "Low precipitation chance")
	} else if maxPrecip > 50 {
		disadvantages = append(disadvantages, "Significant precipitation risk")
	}

	if windN > 0 {
		avgWind := windSum / float64(windN)
		if avgWind < 3 {
			advantages = append(advantages, "Calm conditions")
		} else if avgWind > 8 {
			disadvantages = append(disadvantages, "Windy conditions")
		}
	}

	return advantages, disadvantages
}
