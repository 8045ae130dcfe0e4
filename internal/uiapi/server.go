package uiapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jthorne/skywatch/internal/astro"
	"github.com/jthorne/skywatch/internal/engine"
	"github.com/jthorne/skywatch/internal/store"
	"github.com/jthorne/skywatch/internal/weather"
)

const forecastMaxAge = time.Hour

type Server struct {
	store    *store.Store
	weather  *weather.OpenMeteoClient
	rules    *engine.RuleEngine
	validate *validator.Validate
}

func NewServer(st *store.Store) *Server {
	return &Server{
		store:    st,
		weather:  weather.NewOpenMeteoClient(),
		rules:    engine.NewRuleEngine(),
		validate: validator.New(),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for local development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/location", s.handleGetLocation)
		r.Put("/location", s.handleUpdateLocation)
		r.Get("/activities", s.handleGetActivities)
		r.Post("/activities", s.handleCreateActivity)
		r.Get("/activities/{id}", s.handleGetActivity)
		r.Put("/activities/{id}", s.handleUpdateActivity)
		r.Delete("/activities/{id}", s.handleDeleteActivity)
		r.Get("/forecast", s.handleGetForecast)
		r.Post("/decision", s.handleDecision)
		r.Post("/besttime", s.handleBestTime)
		r.Post("/gonogo", s.handleGoNoGo)
		r.Post("/gear", s.handleGear)
		r.Post("/slots", s.handleSlots)
		r.Get("/twilight", s.handleTwilight)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": "1.0.0",
	})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.store.DefaultLocation()
	if err != nil {
		respondError(w, http.StatusNotFound, "no location configured")
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

type locationRequest struct {
	Name       string  `json:"name" validate:"required"`
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Timezone   string  `json:"timezone"`
	ElevationM float64 `json:"elevation_m"`
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc := &engine.Location{
		ID:          "default",
		Name:        req.Name,
		Coordinates: engine.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude},
		Timezone:    req.Timezone,
		ElevationM:  req.ElevationM,
		IsDefault:   true,
	}
	if err := s.store.SaveLocation(loc); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

func (s *Server) handleGetActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.store.GetActivities()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, activities)
}

type activityRequest struct {
	Name         string                  `json:"name" validate:"required"`
	Description  string                  `json:"description"`
	Category     engine.ActivityCategory `json:"category"`
	Requirements engine.Requirements     `json:"requirements"`
	Icon         string                  `json:"icon"`
	Keywords     []string                `json:"keywords"`
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	activity := engine.Activity{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Requirements: req.Requirements,
		Icon:         req.Icon,
		Keywords:     req.Keywords,
		Enabled:      true,
	}
	if activity.Category == "" {
		activity.Category = engine.CategoryCustom
	}

	if err := s.store.SaveActivity(&activity); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, activity)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	activity, err := s.store.GetActivity(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "activity not found")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var activity engine.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity.ID = id
	if err := s.store.SaveActivity(&activity); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Requirements may have changed, so the translated conditions are stale.
	s.rules.ClearCache()
	respondJSON(w, http.StatusOK, activity)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteActivity(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.rules.ClearCache()
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

// getForecast returns today's annotated forecast for the default location,
// refetching when the cache is older than an hour.
func (s *Server) getForecast(r *http.Request) (*engine.Forecast, error) {
	loc, err := s.store.DefaultLocation()
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	if fc, fetchedAt, err := s.store.GetCachedForecast(loc.Coordinates, today); err == nil {
		if time.Since(fetchedAt) < forecastMaxAge {
			return fc, nil
		}
	}

	fc, err := s.weather.Forecast(r.Context(), loc.Coordinates, 0)
	if err != nil {
		return nil, err
	}
	astro.NewCalculator(loc.Coordinates).Annotate(fc)

	if err := s.store.CacheForecast(loc.Coordinates, today, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

func (s *Server) handleGetForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := s.getForecast(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, fc)
}

type decisionRequest struct {
	ActivityID string    `json:"activity_id" validate:"required"`
	Time       time.Time `json:"time"`
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	activity, err := s.store.GetActivity(req.ActivityID)
	if err != nil {
		respondError(w, http.StatusNotFound, "activity not found")
		return
	}

	hour, err := s.forecastHour(r, req.Time)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hour == nil {
		respondError(w, http.StatusNotFound, "no forecast for the requested time")
		return
	}

	decision := s.rules.MakeDecision(*activity, s.rules.EvaluateHour(*activity, *hour))
	if err := s.store.LogDecision(uuid.NewString(), &decision, activity.ID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

type bestTimeRequest struct {
	ActivityID     string `json:"activity_id" validate:"required"`
	RequirePassing *bool  `json:"require_passing"`
}

func (s *Server) handleBestTime(w http.ResponseWriter, r *http.Request) {
	var req bestTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	activity, err := s.store.GetActivity(req.ActivityID)
	if err != nil {
		respondError(w, http.StatusNotFound, "activity not found")
		return
	}

	fc, err := s.getForecast(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	requirePassing := req.RequirePassing == nil || *req.RequirePassing
	best := s.rules.BestTime(*activity, fc, requirePassing)
	if best == nil {
		respondError(w, http.StatusNotFound, "no suitable hour in the forecast")
		return
	}
	respondJSON(w, http.StatusOK, best)
}

type goNoGoRequest struct {
	Profile             string    `json:"profile" validate:"required,oneof=astronomy solar"`
	Time                time.Time `json:"time"`
	MaxCloudCover       *float64  `json:"max_cloud_cover" validate:"omitempty,gte=0,lte=100"`
	MaxMoonIllumination *float64  `json:"max_moon_illumination" validate:"omitempty,gte=0,lte=100"`
}

func (s *Server) handleGoNoGo(w http.ResponseWriter, r *http.Request) {
	var req goNoGoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hour, err := s.forecastHour(r, req.Time)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hour == nil {
		respondError(w, http.StatusNotFound, "no forecast for the requested time")
		return
	}

	var evaluator *engine.Evaluator
	if req.Profile == "solar" {
		th := engine.DefaultSolarThresholds()
		if req.MaxCloudCover != nil {
			th.MaxCloudCoverPercent = *req.MaxCloudCover
		}
		evaluator = engine.NewSolarEvaluator(th)
	} else {
		th := engine.DefaultAstronomyThresholds()
		if req.MaxCloudCover != nil {
			th.MaxCloudCoverPercent = *req.MaxCloudCover
		}
		th.MaxMoonIllumination = req.MaxMoonIllumination
		evaluator = engine.NewAstronomyEvaluator(th)
	}
	respondJSON(w, http.StatusOK, evaluator.Evaluate(*hour))
}

type gearRequest struct {
	Activity string    `json:"activity" validate:"required,oneof=running cycling"`
	Time     time.Time `json:"time"`
}

func (s *Server) handleGear(w http.ResponseWriter, r *http.Request) {
	var req gearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hour, err := s.forecastHour(r, req.Time)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hour == nil {
		respondError(w, http.StatusNotFound, "no forecast for the requested time")
		return
	}

	rules := engine.RunningGearRules()
	if req.Activity == "cycling" {
		rules = engine.CyclingGearRules()
	}
	respondJSON(w, http.StatusOK, engine.NewRecommender(rules).Recommend(*hour))
}

type slotsRequest struct {
	ActivityID     string `json:"activity_id" validate:"required"`
	MinHours       int    `json:"min_hours" validate:"gte=0,lte=24"`
	PreferredHours int    `json:"preferred_hours" validate:"gte=0,lte=24"`
	MaxSlots       int    `json:"max_slots" validate:"gte=0,lte=20"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	var req slotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	activity, err := s.store.GetActivity(req.ActivityID)
	if err != nil {
		respondError(w, http.StatusNotFound, "activity not found")
		return
	}

	fc, err := s.getForecast(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := engine.DefaultSlotOptions()
	if req.MinHours > 0 {
		opts.MinDuration = time.Duration(req.MinHours) * time.Hour
	}
	if req.PreferredHours > 0 {
		opts.PreferredDuration = time.Duration(req.PreferredHours) * time.Hour
	}
	if req.MaxSlots > 0 {
		opts.MaxSlots = req.MaxSlots
	}

	finder := engine.NewSlotFinder(s.rules)
	respondJSON(w, http.StatusOK, finder.FindSlots(*activity, fc, opts))
}

func (s *Server) handleTwilight(w http.ResponseWriter, r *http.Request) {
	loc, err := s.store.DefaultLocation()
	if err != nil {
		respondError(w, http.StatusNotFound, "no location configured")
		return
	}

	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	calc := astro.NewCalculator(loc.Coordinates)
	respondJSON(w, http.StatusOK, calc.TwilightFor(date))
}

// forecastHour resolves the forecast hour nearest to t, defaulting to now
func (s *Server) forecastHour(r *http.Request, t time.Time) (*engine.HourlyForecast, error) {
	fc, err := s.getForecast(r)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return fc.At(t), nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
