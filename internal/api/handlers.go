package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/farmnode/internal/actuator"
	"github.com/nerrad567/farmnode/internal/audit"
	"github.com/nerrad567/farmnode/internal/control"
)

const maxEventsLimit = 200

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	NodeID       string           `json:"node_id"`
	Zone         string           `json:"zone"`
	Version      string           `json:"version"`
	SessionState string           `json:"session_state"`
	Telemetry    *TelemetryStatus `json:"telemetry"`
	Actuators    []actuator.State `json:"actuators"`
}

// TelemetryStatus describes the most recent cycle.
type TelemetryStatus struct {
	Payload   control.TelemetryPayload `json:"payload"`
	Published bool                     `json:"published"`
	At        time.Time                `json:"at"`
}

// EventsResponse is the body of GET /api/v1/events.
type EventsResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.session.State().String()
	if err := s.session.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":        "unhealthy",
			"session_state": state,
			"error":         err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"session_state": state,
		"version":       s.version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		NodeID:       s.node.ID,
		Zone:         s.node.Zone,
		Version:      s.version,
		SessionState: s.session.State().String(),
		Actuators:    s.actuators.Snapshot(),
	}
	if snap, ok := s.telemetry.Last(); ok {
		resp.Telemetry = &TelemetryStatus{
			Payload:   snap.Payload,
			Published: snap.Published,
			At:        snap.At.UTC(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		ActuatorID: q.Get("actuator_id"),
		Source:     q.Get("source"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxEventsLimit {
			writeBadRequest(w, "limit must be between 1 and 200")
			return
		}
		filter.Limit = limit
	}
	if filter.Source != "" && filter.Source != audit.SourceMQTT && filter.Source != audit.SourceAuto {
		writeBadRequest(w, "source must be mqtt or auto")
		return
	}

	events, err := s.events.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing actuator events failed", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, EventsResponse{Events: events, Count: len(events)})
}
