// Package weather fetches forecasts from Open-Meteo and translates them into
// the canonical model. All values are SI: celsius, m/s, meters, hPa.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jthorne/skywatch/internal/engine"
)

const openMeteoAPIBase = "https://api.open-meteo.com/v1/forecast"

const defaultForecastDays = 3

// OpenMeteoClient fetches weather forecasts from the Open-Meteo API.
// BaseURL can be pointed at a test server.
type OpenMeteoClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewOpenMeteoClient() *OpenMeteoClient {
	return &OpenMeteoClient{
		BaseURL:    openMeteoAPIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// openMeteoResponse mirrors the API payload. Optional series use pointer
// elements because Open-Meteo reports missing values as JSON nulls.
type openMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
	Hourly    struct {
		Time                 []string   `json:"time"`
		Temperature2m        []float64  `json:"temperature_2m"`
		ApparentTemperature  []*float64 `json:"apparent_temperature"`
		DewPoint2m           []*float64 `json:"dew_point_2m"`
		RelativeHumidity2m   []*float64 `json:"relative_humidity_2m"`
		WindSpeed10m         []*float64 `json:"wind_speed_10m"`
		WindGusts10m         []*float64 `json:"wind_gusts_10m"`
		WindDirection10m     []*float64 `json:"wind_direction_10m"`
		CloudCover           []*float64 `json:"cloud_cover"`
		CloudCoverLow        []*float64 `json:"cloud_cover_low"`
		CloudCoverHigh       []*float64 `json:"cloud_cover_high"`
		PrecipitationProb    []*float64 `json:"precipitation_probability"`
		Precipitation        []*float64 `json:"precipitation"`
		Visibility           []*float64 `json:"visibility"`
		UVIndex              []*float64 `json:"uv_index"`
		SurfacePressure      []*float64 `json:"surface_pressure"`
		WeatherCode          []*float64 `json:"weather_code"`
	} `json:"hourly"`
}

// Forecast fetches the hourly forecast for a location. Times are UTC.
func (c *OpenMeteoClient) Forecast(ctx context.Context, loc engine.Coordinates, days int) (*engine.Forecast, error) {
	if days <= 0 {
		days = defaultForecastDays
	}

	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%.4f", loc.Latitude))
	params.Add("longitude", fmt.Sprintf("%.4f", loc.Longitude))
	params.Add("hourly", "temperature_2m,apparent_temperature,dew_point_2m,relative_humidity_2m,"+
		"wind_speed_10m,wind_gusts_10m,wind_direction_10m,"+
		"cloud_cover,cloud_cover_low,cloud_cover_high,"+
		"precipitation_probability,precipitation,visibility,uv_index,surface_pressure,weather_code")
	params.Add("windspeed_unit", "ms")
	params.Add("forecast_days", fmt.Sprintf("%d", days))
	params.Add("timezone", "UTC")

	fullURL := fmt.Sprintf("%s?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var meteoResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&meteoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return translate(loc, &meteoResp), nil
}

func translate(loc engine.Coordinates, r *openMeteoResponse) *engine.Forecast {
	fc := &engine.Forecast{
		Location:    loc,
		GeneratedAt: time.Now().UTC(),
		Provider:    "open-meteo",
		Timezone:    "UTC",
		ElevationM:  r.Elevation,
	}

	h := r.Hourly
	at := func(series []*float64, i int) *float64 {
		if i >= len(series) {
			return nil
		}
		return series[i]
	}

	for i := range h.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", h.Time[i], time.UTC)
		if err != nil || i >= len(h.Temperature2m) {
			continue
		}

		hour := engine.HourlyForecast{
			Time:            t,
			TemperatureC:    h.Temperature2m[i],
			FeelsLikeC:      at(h.ApparentTemperature, i),
			DewPointC:       at(h.DewPoint2m, i),
			HumidityPercent: at(h.RelativeHumidity2m, i),
			PressureHpa:     at(h.SurfacePressure, i),
			VisibilityM:     at(h.Visibility, i),
			UVIndex:         at(h.UVIndex, i),
			Condition:       engine.ClassUnknown,
		}

		if code := at(h.WeatherCode, i); code != nil {
			hour.Condition = conditionFromWMOCode(int(*code))
		}
		if speed := at(h.WindSpeed10m, i); speed != nil {
			hour.Wind = &engine.Wind{
				SpeedMps:     *speed,
				GustMps:      at(h.WindGusts10m, i),
				DirectionDeg: at(h.WindDirection10m, i),
			}
		}
		if total := at(h.CloudCover, i); total != nil {
			hour.Clouds = &engine.CloudCover{
				TotalPercent: *total,
				LowPercent:   at(h.CloudCoverLow, i),
				HighPercent:  at(h.CloudCoverHigh, i),
			}
		}
		if prob := at(h.PrecipitationProb, i); prob != nil {
			hour.Precipitation = &engine.Precipitation{
				ProbabilityPercent: *prob,
				AmountMM:           at(h.Precipitation, i),
			}
		}

		fc.Hourly = append(fc.Hourly, hour)
	}

	return fc
}

// conditionFromWMOCode maps WMO weather interpretation codes to condition
// classes.
func conditionFromWMOCode(code int) engine.ConditionClass {
	switch code {
	case 0:
		return engine.ClassClear
	case 1:
		return engine.ClassPartlyCloudy
	case 2:
		return engine.ClassCloudy
	case 3:
		return engine.ClassOvercast
	case 45, 48:
		return engine.ClassFog
	case 51, 53, 55, 56, 57:
		return engine.ClassDrizzle
	case 61, 80:
		return engine.ClassLightRain
	case 63, 66, 81:
		return engine.ClassRain
	case 65, 67, 82:
		return engine.ClassHeavyRain
	case 71, 85:
		return engine.ClassLightSnow
	case 73, 77:
		return engine.ClassSnow
	case 75, 86:
		return engine.ClassHeavySnow
	case 95:
		return engine.ClassThunderstorm
	case 96, 99:
		return engine.ClassHail
	}
	return engine.ClassUnknown
}
