package network

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Minimum gap between commands from the same observer.
	commandCooldown = 5 * time.Second
)

// Client holds one observer's WebSocket connection.
type Client struct {
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	lastCommandTime time.Time
}

// NewClient creates a new WebSocket client bound to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// ObserverCommand represents an incoming command from an observer.
type ObserverCommand struct {
	Type       string          `json:"type"`        // "TRIGGER_DRILL", "SET_PARK_POLICY", "SCHEDULE_EVENT"
	ObserverID string          `json:"observer_id"` // Who issued the command
	Payload    json.RawMessage `json:"payload"`     // Command-specific data
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd ObserverCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse ObserverCommand from WebSocket: %v", err)
			metrics.Get().RecordWSError()
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd ObserverCommand) {
	if time.Since(c.lastCommandTime) < commandCooldown {
		c.hub.logger.Warn("Rate limit exceeded for observer %s", cmd.ObserverID)
		return
	}
	c.lastCommandTime = time.Now()

	switch cmd.Type {
	case "TRIGGER_DRILL":
		c.handleTriggerDrill(cmd)
	case "SET_PARK_POLICY":
		c.handleSetParkPolicy(cmd)
	case "SCHEDULE_EVENT":
		c.handleScheduleEvent(cmd)
	default:
		c.hub.logger.Warn("Unknown ObserverCommand type: %s", cmd.Type)
	}
}

// handleTriggerDrill injects an evacuation drill for a building. The
// evacuation system picks the event up on the next dispatch cycle.
func (c *Client) handleTriggerDrill(cmd ObserverCommand) {
	var parsed struct {
		BuildingID uint16 `json:"building_id"`
	}
	if err := json.Unmarshal(cmd.Payload, &parsed); err != nil || parsed.BuildingID == 0 {
		c.hub.logger.Warn("TRIGGER_DRILL with bad payload from %s", cmd.ObserverID)
		return
	}

	c.appendCommandEvent(events.EventTypeDrillTriggered, cmd.ObserverID, map[string]interface{}{
		"building_id": float64(parsed.BuildingID),
	})
	c.hub.logger.Event("OBSERVER_DRILL", cmd.ObserverID, "Drill requested for building")
}

// handleSetParkPolicy toggles a district policy such as night tours.
func (c *Client) handleSetParkPolicy(cmd ObserverCommand) {
	var parsed struct {
		DistrictID uint8  `json:"district_id"`
		Policy     string `json:"policy"`
		Enabled    bool   `json:"enabled"`
	}
	if err := json.Unmarshal(cmd.Payload, &parsed); err != nil || parsed.Policy == "" {
		c.hub.logger.Warn("SET_PARK_POLICY with bad payload from %s", cmd.ObserverID)
		return
	}

	c.appendCommandEvent(events.EventTypePolicyChanged, cmd.ObserverID, map[string]interface{}{
		"district_id": float64(parsed.DistrictID),
		"policy":      parsed.Policy,
		"enabled":     parsed.Enabled,
	})
	c.hub.logger.Event("OBSERVER_POLICY", cmd.ObserverID, "Policy change requested")
}

// handleScheduleEvent books a concert or fair at a building.
func (c *Client) handleScheduleEvent(cmd ObserverCommand) {
	var parsed struct {
		BuildingID    uint16 `json:"building_id"`
		StartDay      int    `json:"start_day"`
		StartHour     int    `json:"start_hour"`
		DurationHours int    `json:"duration_hours"`
	}
	if err := json.Unmarshal(cmd.Payload, &parsed); err != nil || parsed.BuildingID == 0 || parsed.DurationHours <= 0 {
		c.hub.logger.Warn("SCHEDULE_EVENT with bad payload from %s", cmd.ObserverID)
		return
	}

	c.appendCommandEvent(events.EventTypeEventScheduled, cmd.ObserverID, map[string]interface{}{
		"building_id":    float64(parsed.BuildingID),
		"start_day":      float64(parsed.StartDay),
		"start_hour":     float64(parsed.StartHour),
		"duration_hours": float64(parsed.DurationHours),
	})
	c.hub.logger.Event("OBSERVER_EVENT", cmd.ObserverID, "City event scheduled")
}

func (c *Client) appendCommandEvent(t events.EventType, observerID string, payload map[string]interface{}) {
	day, _ := c.hub.engine.GetCurrentTime()
	c.hub.engine.GetEventLog().Append(events.CityEvent{
		ID:        events.NewID(),
		Timestamp: time.Now(),
		Type:      t,
		ActorID:   "observer:" + observerID,
		Payload:   payload,
		GameDay:   day,
	})
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
