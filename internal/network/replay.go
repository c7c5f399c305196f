// Package network - replay.go
// JSON export of the city's event history. Lets dashboards and tooling
// replay the immutable log, filtered by day or event type.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
)

// ReplayHandler provides the event replay API.
type ReplayHandler struct {
	cityID   string
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(cityID string, el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		cityID:   cityID,
		eventLog: el,
		logger:   log,
	}
}

// ReplayEvent is a sanitized event for public viewing.
type ReplayEvent struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	GameDay   int                    `json:"game_day"`
	Type      string                 `json:"type"`
	ActorID   string                 `json:"actor_id"`
	TargetID  string                 `json:"target_id,omitempty"`
	Summary   string                 `json:"summary"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ReplayResponse is the API response for an event replay.
type ReplayResponse struct {
	CityID      string        `json:"city_id"`
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the event replay for the city.
// GET /api/replay?day=N&type=VISIT_ENDED
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dayStr := r.URL.Query().Get("day")
	eventType := r.URL.Query().Get("type")

	allEvents := rh.eventLog.Replay()

	var replayEvents []ReplayEvent
	filterDesc := ""

	for _, e := range allEvents {
		if dayStr != "" {
			day, _ := strconv.Atoi(dayStr)
			if e.GameDay != day {
				continue
			}
			filterDesc = "Day " + dayStr
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replayEvents = append(replayEvents, rh.convertToReplayEvent(e))
	}

	response := ReplayResponse{
		CityID:      rh.cityID,
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}

	rh.logger.Event("REPLAY_EXPORT", "OBSERVER", "Events:"+strconv.Itoa(len(replayEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleEventDetail returns details of a specific event.
// GET /api/replay/event?event_id=XXX
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		rh.jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	allEvents := rh.eventLog.Replay()
	for _, e := range allEvents {
		if e.ID == eventID {
			detail := rh.convertToReplayEvent(e)
			if payload, ok := e.Payload.(map[string]interface{}); ok {
				detail.Details = payload
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(detail)
			return
		}
	}

	rh.jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns aggregate statistics over the event log.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":   len(allEvents),
		"visits_ended":   0,
		"moves":          0,
		"sickness_cases": 0,
		"deaths":         0,
		"purchases":      0,
		"drills":         0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeVisitEnded:
			stats["visits_ended"]++
		case events.EventTypeMoveCompleted:
			stats["moves"]++
		case events.EventTypeCitizenSick:
			stats["sickness_cases"]++
		case events.EventTypeCitizenDied:
			stats["deaths"]++
		case events.EventTypeGoodsPurchased:
			stats["purchases"]++
		case events.EventTypeEvacuationStart:
			stats["drills"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"city_id":      rh.cityID,
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/replay/event", rh.HandleEventDetail)
	mux.HandleFunc("/api/replay/stats", rh.HandleStats)
}

// convertToReplayEvent transforms an internal event to public format.
func (rh *ReplayHandler) convertToReplayEvent(e events.CityEvent) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		GameDay:   e.GameDay,
		Type:      string(e.Type),
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Summary:   rh.summarizeEvent(e),
	}
}

// summarizeEvent creates a human-readable summary.
func (rh *ReplayHandler) summarizeEvent(e events.CityEvent) string {
	switch e.Type {
	case events.EventTypeTimeTick:
		return "The city clock advanced."
	case events.EventTypeVisitEnded:
		return "A citizen wrapped up a visit and headed home."
	case events.EventTypeMoveStarted:
		return "A citizen set off across the city."
	case events.EventTypeMoveCompleted:
		return "A citizen arrived at their destination."
	case events.EventTypeCitizenSick:
		return "A citizen fell ill."
	case events.EventTypeCitizenRecovered:
		return "A citizen recovered."
	case events.EventTypeCitizenDied:
		return "A citizen died."
	case events.EventTypeCitizenArrested:
		return "A citizen was taken to the station."
	case events.EventTypeGoodsPurchased:
		return "A household restocked its pantry."
	case events.EventTypeEvacuationStart:
		return "An evacuation drill began."
	case events.EventTypeEvacuationEnd:
		return "An evacuation drill ended."
	case events.EventTypeCityEventPhase:
		return "A city event changed phase."
	case events.EventTypeScheduleAssigned:
		return "A building received its work schedule."
	case events.EventTypePolicyChanged:
		return "A district policy changed."
	default:
		return "Something happened in the city."
	}
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
