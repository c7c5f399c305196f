package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/metrics"
)

// Persister adapts the repositories to the EventLog's write-through
// interface. Every appended event lands in SQLite and, when configured,
// in the PostgreSQL archive as well.
type Persister struct {
	cityID  string
	primary EventRepository
	archive EventRepository // optional
}

// NewPersister creates a write-through persister for a city.
func NewPersister(cityID string, primary EventRepository, archive EventRepository) *Persister {
	return &Persister{
		cityID:  cityID,
		primary: primary,
		archive: archive,
	}
}

// Append stores one event. Archive failures are swallowed; the primary
// ledger is the source of truth.
func (p *Persister) Append(event events.CityEvent) error {
	record := CityEventRecord{
		ID:        event.ID,
		CityID:    p.cityID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   toPayloadMap(event.Payload),
		GameDay:   event.GameDay,
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := p.primary.Append(ctx, record)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	if err != nil {
		return err
	}

	if p.archive != nil {
		_ = p.archive.Append(ctx, record)
	}
	return nil
}

// toPayloadMap normalizes any payload shape to a JSON object map.
func toPayloadMap(payload interface{}) map[string]interface{} {
	if payload == nil {
		return map[string]interface{}{}
	}
	if m, ok := payload.(map[string]interface{}); ok {
		return m
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
