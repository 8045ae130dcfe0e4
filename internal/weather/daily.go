package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jthorne/skywatch/internal/engine"
)

// DailyOutlook is a one-line-per-day summary used by the outlook views
type DailyOutlook struct {
	Date             time.Time `json:"date"`
	MaxTempC         float64   `json:"max_temp_c"`
	MinTempC         float64   `json:"min_temp_c"`
	PrecipProbMax    float64   `json:"precip_prob_max"`
	CloudCoverMean   float64   `json:"cloud_cover_mean"`
	SunshineHours    float64   `json:"sunshine_hours"`
	GoodObservingDay bool      `json:"good_observing_day"`
}

// DailyClient fetches day-granularity outlooks, a cheaper call than the full
// hourly forecast when only a multi-day overview is needed.
type DailyClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewDailyClient() *DailyClient {
	return &DailyClient{
		BaseURL:    openMeteoAPIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type dailyResponse struct {
	Daily struct {
		Time           []string  `json:"time"`
		MaxTemp        []float64 `json:"temperature_2m_max"`
		MinTemp        []float64 `json:"temperature_2m_min"`
		PrecipProbMax  []float64 `json:"precipitation_probability_max"`
		CloudCoverMean []float64 `json:"cloud_cover_mean"`
		SunshineSecs   []float64 `json:"sunshine_duration"`
	} `json:"daily"`
}

// Outlook fetches the daily outlook for the next N days
func (c *DailyClient) Outlook(ctx context.Context, loc engine.Coordinates, days int) ([]DailyOutlook, error) {
	if days <= 0 {
		days = defaultForecastDays
	}

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&daily=temperature_2m_max,temperature_2m_min,precipitation_probability_max,cloud_cover_mean,sunshine_duration&timezone=UTC&forecast_days=%d",
		c.BaseURL, loc.Latitude, loc.Longitude, days)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var data dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	out := make([]DailyOutlook, 0, len(data.Daily.Time))
	for i := range data.Daily.Time {
		date, err := time.Parse("2006-01-02", data.Daily.Time[i])
		if err != nil || i >= len(data.Daily.MaxTemp) || i >= len(data.Daily.MinTemp) {
			continue
		}

		d := DailyOutlook{
			Date:     date,
			MaxTempC: data.Daily.MaxTemp[i],
			MinTempC: data.Daily.MinTemp[i],
		}
		if i < len(data.Daily.PrecipProbMax) {
			d.PrecipProbMax = data.Daily.PrecipProbMax[i]
		}
		if i < len(data.Daily.CloudCoverMean) {
			d.CloudCoverMean = data.Daily.CloudCoverMean[i]
		}
		if i < len(data.Daily.SunshineSecs) {
			d.SunshineHours = data.Daily.SunshineSecs[i] / 3600.0
		}

		// A night worth setting up for: mostly clear and little rain risk.
		d.GoodObservingDay = d.CloudCoverMean < 30 && d.PrecipProbMax < 20

		out = append(out, d)
	}

	return out, nil
}
