package uiapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jthorne/skywatch/internal/engine"
	"github.com/jthorne/skywatch/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(st).Handler())
	t.Cleanup(func() {
		srv.Close()
		st.Close()
	})
	return srv, st
}

func seedLocation(t *testing.T, st *store.Store) engine.Coordinates {
	t.Helper()
	coords := engine.Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	require.NoError(t, st.SaveLocation(&engine.Location{
		ID:          "default",
		Name:        "Backyard",
		Coordinates: coords,
		IsDefault:   true,
	}))
	return coords
}

// seedForecast caches a fresh forecast around the current hour so handlers
// never reach for the network.
func seedForecast(t *testing.T, st *store.Store, coords engine.Coordinates) {
	t.Helper()
	base := time.Now().UTC().Round(time.Hour).Add(-2 * time.Hour)
	fc := &engine.Forecast{Location: coords, Provider: "open-meteo", GeneratedAt: time.Now().UTC()}
	for i := 0; i < 6; i++ {
		wind := 2.5
		fc.Hourly = append(fc.Hourly, engine.HourlyForecast{
			Time:          base.Add(time.Duration(i) * time.Hour),
			TemperatureC:  18,
			Condition:     engine.ClassClear,
			Wind:          &engine.Wind{SpeedMps: wind},
			Clouds:        &engine.CloudCover{TotalPercent: 10},
			Precipitation: &engine.Precipitation{ProbabilityPercent: 0},
		})
	}
	require.NoError(t, st.CacheForecast(coords, time.Now().UTC(), fc))
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	require.Equal(t, "ok", body["status"])
}

func TestLocationValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/location",
		bytes.NewReader([]byte(`{"name":"Nowhere","latitude":999,"longitude":0}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLocationRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/location",
		bytes.NewReader([]byte(`{"name":"Backyard","latitude":40.7128,"longitude":-74.0060}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/location")
	require.NoError(t, err)
	var loc engine.Location
	decode(t, getResp, &loc)
	require.Equal(t, "Backyard", loc.Name)
	require.True(t, loc.IsDefault)
}

func TestActivityCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	// Missing name is rejected.
	resp := postJSON(t, srv.URL+"/api/activities", map[string]interface{}{"description": "no name"})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/activities", map[string]interface{}{
		"name":     "Trail Run",
		"category": "exercise",
		"requirements": map[string]interface{}{
			"temperature": map[string]interface{}{"min_c": -10},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created engine.Activity
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	require.True(t, created.Enabled)

	getResp, err := http.Get(fmt.Sprintf("%s/api/activities/%s", srv.URL, created.ID))
	require.NoError(t, err)
	var fetched engine.Activity
	decode(t, getResp, &fetched)
	require.Equal(t, "Trail Run", fetched.Name)
	require.NotNil(t, fetched.Requirements.Temperature)

	delReq, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/activities/%s", srv.URL, created.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	missing, err := http.Get(fmt.Sprintf("%s/api/activities/%s", srv.URL, created.ID))
	require.NoError(t, err)
	missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestDecisionEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	coords := seedLocation(t, st)
	seedForecast(t, st, coords)

	activity := engine.RunningActivity()
	activity.ID = "running"
	require.NoError(t, st.SaveActivity(&activity))

	resp := postJSON(t, srv.URL+"/api/decision", map[string]interface{}{"activity_id": "running"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decision engine.Decision
	decode(t, resp, &decision)
	require.Equal(t, engine.VerdictGo, decision.Verdict)
	require.NotEmpty(t, decision.Factors)

	// The decision is also logged.
	logged, err := st.RecentDecisions("running", 5)
	require.NoError(t, err)
	require.Len(t, logged, 1)
}

func TestBestTimeEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	coords := seedLocation(t, st)
	seedForecast(t, st, coords)

	activity := engine.RunningActivity()
	activity.ID = "running"
	require.NoError(t, st.SaveActivity(&activity))

	resp := postJSON(t, srv.URL+"/api/besttime", map[string]interface{}{"activity_id": "running"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var best engine.EvaluationResult
	decode(t, resp, &best)
	require.True(t, best.Passed)
	require.Greater(t, best.Score, 0.0)

	resp = postJSON(t, srv.URL+"/api/besttime", map[string]interface{}{"activity_id": "nope"})
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGoNoGoEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	coords := seedLocation(t, st)
	seedForecast(t, st, coords)

	resp := postJSON(t, srv.URL+"/api/gonogo", map[string]interface{}{"profile": "skiing"})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/gonogo", map[string]interface{}{"profile": "astronomy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result engine.GoNoGoResult
	decode(t, resp, &result)
	require.Equal(t, engine.VerdictGo, result.Verdict)
	require.Equal(t, 0.8, result.Confidence)

	// Tightening the cloud limit below the seeded 10% flips the verdict.
	resp = postJSON(t, srv.URL+"/api/gonogo", map[string]interface{}{
		"profile":         "astronomy",
		"max_cloud_cover": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &result)
	require.Equal(t, engine.VerdictNoGo, result.Verdict)
	require.Contains(t, result.BlockingFactors, "Cloud Cover")
}

func TestGearEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	coords := seedLocation(t, st)
	seedForecast(t, st, coords)

	resp := postJSON(t, srv.URL+"/api/gear", map[string]interface{}{"activity": "running"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec engine.GearRecommendation
	decode(t, resp, &rec)
	require.NotEmpty(t, rec.Items)
	require.NotEmpty(t, rec.ByCategory["torso_base"])
}

func TestSlotsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	coords := seedLocation(t, st)
	seedForecast(t, st, coords)

	activity := engine.RunningActivity()
	activity.ID = "running"
	require.NoError(t, st.SaveActivity(&activity))

	resp := postJSON(t, srv.URL+"/api/slots", map[string]interface{}{
		"activity_id": "running",
		"min_hours":   1,
		"max_slots":   2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec engine.TimeSlotRecommendation
	decode(t, resp, &rec)
	require.False(t, rec.NoSuitableSlots)
	require.NotEmpty(t, rec.Slots)
	require.True(t, rec.Slots[0].IsOptimal)
}

func TestTwilightEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedLocation(t, st)

	resp, err := http.Get(srv.URL + "/api/twilight?date=junk")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/twilight?date=2026-06-21")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	require.NotNil(t, body["sunrise"])
	require.NotNil(t, body["astronomical_dusk"])
}
