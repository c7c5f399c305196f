// Package network - observer.go
// REST API for city observers: live status, citizen snapshots and
// out-of-band interventions (drills, policies, event bookings).
package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mbuendia/CiudadViva/server/internal/engine"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/infra/cache"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
)

// ObserverBridge handles REST interactions from dashboards and tooling.
type ObserverBridge struct {
	cityID   string
	engine   *engine.Engine
	eventLog *events.EventLog
	cache    *cache.CityCache
	wsHub    *Hub
	logger   *logger.Logger
}

// NewObserverBridge creates a new observer interaction handler.
func NewObserverBridge(cityID string, eng *engine.Engine, el *events.EventLog, cc *cache.CityCache, hub *Hub, log *logger.Logger) *ObserverBridge {
	return &ObserverBridge{
		cityID:   cityID,
		engine:   eng,
		eventLog: el,
		cache:    cc,
		wsHub:    hub,
		logger:   log,
	}
}

// DrillRequest is the payload for triggering an evacuation drill.
type DrillRequest struct {
	BuildingID uint16 `json:"building_id"`
	ObserverID string `json:"observer_id"`
}

// PolicyRequest is the payload for toggling a district policy.
type PolicyRequest struct {
	DistrictID uint8  `json:"district_id"`
	Policy     string `json:"policy"`
	Enabled    bool   `json:"enabled"`
	ObserverID string `json:"observer_id"`
}

// HandleDrill is the endpoint for observer-triggered evacuation drills.
// POST /api/city/drill
func (ob *ObserverBridge) HandleDrill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DrillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ob.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BuildingID == 0 {
		ob.jsonError(w, "Missing building_id", http.StatusBadRequest)
		return
	}

	day, _ := ob.engine.GetCurrentTime()
	ob.eventLog.Append(events.CityEvent{
		ID:        events.NewID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeDrillTriggered,
		ActorID:   "observer:" + req.ObserverID,
		Payload:   map[string]interface{}{"building_id": float64(req.BuildingID)},
		GameDay:   day,
	})

	ob.logger.Event("OBSERVER_DRILL", req.ObserverID, "Drill requested via REST")
	ob.jsonSuccess(w, map[string]interface{}{
		"success":     true,
		"building_id": req.BuildingID,
	})
}

// HandlePolicy is the endpoint for district policy changes.
// POST /api/city/policy
func (ob *ObserverBridge) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ob.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Policy == "" {
		ob.jsonError(w, "Missing policy", http.StatusBadRequest)
		return
	}

	day, _ := ob.engine.GetCurrentTime()
	ob.eventLog.Append(events.CityEvent{
		ID:        events.NewID(),
		Timestamp: time.Now(),
		Type:      events.EventTypePolicyChanged,
		ActorID:   "observer:" + req.ObserverID,
		Payload: map[string]interface{}{
			"district_id": float64(req.DistrictID),
			"policy":      req.Policy,
			"enabled":     req.Enabled,
		},
		GameDay: day,
	})

	ob.logger.Event("OBSERVER_POLICY", req.ObserverID, "Policy change requested via REST")
	ob.jsonSuccess(w, map[string]interface{}{
		"success": true,
		"policy":  req.Policy,
		"enabled": req.Enabled,
	})
}

// HandleCityStatus returns the current clock and population summary.
// GET /api/city/status
func (ob *ObserverBridge) HandleCityStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	day, hour := ob.engine.GetCurrentTime()
	ob.jsonSuccess(w, map[string]interface{}{
		"city_id":   ob.cityID,
		"game_day":  day,
		"game_hour": hour,
		"observers": ob.wsHub.ObserverCount(),
		"timestamp": time.Now().Unix(),
	})
}

// HandleCitizens returns the cached citizen states for the city.
// The cache is refreshed out of band by the server's sync routine, so this
// endpoint never touches simulation state directly.
// GET /api/city/citizens
func (ob *ObserverBridge) HandleCitizens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	states, err := ob.cache.GetCityState(r.Context(), ob.cityID)
	if err != nil {
		ob.jsonError(w, "Citizen snapshot unavailable", http.StatusServiceUnavailable)
		return
	}

	ob.jsonSuccess(w, map[string]interface{}{
		"city_id":  ob.cityID,
		"count":    len(states),
		"citizens": states,
	})
}

// HandleSchedules returns the frozen work-schedule table.
// GET /api/city/schedules
func (ob *ObserverBridge) HandleSchedules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ob.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries := ob.engine.Schedules().Entries()
	ob.jsonSuccess(w, map[string]interface{}{
		"city_id":   ob.cityID,
		"count":     len(entries),
		"schedules": entries,
	})
}

// RegisterRoutes sets up the observer API routes.
func (ob *ObserverBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/city/drill", ob.HandleDrill)
	mux.HandleFunc("/api/city/policy", ob.HandlePolicy)
	mux.HandleFunc("/api/city/status", ob.HandleCityStatus)
	mux.HandleFunc("/api/city/citizens", ob.HandleCitizens)
	mux.HandleFunc("/api/city/schedules", ob.HandleSchedules)
}

// jsonError sends an error response.
func (ob *ObserverBridge) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (ob *ObserverBridge) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
