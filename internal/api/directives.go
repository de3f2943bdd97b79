package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/directive"
)

// WebSocket channels for directive outcomes. Every directive is sent on
// EventDirectiveExecuted; error responses are also sent on EventDirectiveFailed.
const (
	EventDirectiveExecuted = "directive.executed"
	EventDirectiveFailed   = "directive.failed"
)

// DirectiveEvent describes one executed directive.
type DirectiveEvent struct {
	MessageID    string `json:"message_id,omitempty"`
	Namespace    string `json:"namespace"`
	Name         string `json:"name"`
	EndpointID   string `json:"endpoint_id,omitempty"`
	Outcome      string `json:"outcome"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
	Caller       string `json:"caller,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// handleExecuteDirective runs one directive and returns the response event.
//
// Protocol failures (unknown directive, missing endpoint, unreachable device)
// are ErrorResponse events and still answer 200. Only an unreadable request
// is an HTTP error.
func (s *Server) handleExecuteDirective(w http.ResponseWriter, r *http.Request) {
	var req directive.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "invalid JSON body")
		return
	}
	dir := &req.Directive
	if dir.Header.Namespace == "" || dir.Header.Name == "" {
		writeBadRequest(w, "directive.header.namespace and directive.header.name are required")
		return
	}

	rec := &directive.Recorder{}
	start := time.Now()
	s.dispatcher.Execute(r.Context(), dir, rec)
	elapsed := time.Since(start)

	resp := rec.Response()
	if resp == nil {
		s.logger.Error("directive produced no response", "directive", dir.String())
		writeInternalError(w, "directive produced no response")
		return
	}

	s.recordDirective(r, dir, resp, rec.Failed(), elapsed)
	writeJSON(w, http.StatusOK, resp)
}

// recordDirective fans the outcome out to stats, the audit log, the
// time-series store, WebSocket subscribers and the MQTT bus. None of these
// can fail the request.
func (s *Server) recordDirective(r *http.Request, dir *directive.Directive, resp *directive.Response, failed bool, elapsed time.Duration) {
	ev := DirectiveEvent{
		MessageID:  dir.Header.MessageID,
		Namespace:  dir.Header.Namespace,
		Name:       dir.Header.Name,
		EndpointID: dir.Endpoint.EndpointID,
		Outcome:    audit.OutcomeSuccess,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if failed {
		ev.Outcome = audit.OutcomeError
		ev.ErrorType = string(resp.ErrorType())
		if p, ok := resp.Event.Payload.(directive.ErrorPayload); ok {
			ev.ErrorMessage = p.Message
		}
	}
	if claims := claimsFromContext(r.Context()); claims != nil {
		ev.Caller = claims.Subject
	}

	s.stats.observe(ev.Outcome, ev.ErrorType)

	s.logger.Info("directive executed",
		"directive", dir.String(),
		"endpoint_id", ev.EndpointID,
		"outcome", ev.Outcome,
		"error_type", ev.ErrorType,
		"duration_ms", ev.DurationMS,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)

	if s.auditSink != nil {
		s.auditSink.Enqueue(&audit.Entry{
			MessageID:    ev.MessageID,
			Namespace:    ev.Namespace,
			Name:         ev.Name,
			EndpointID:   ev.EndpointID,
			Outcome:      ev.Outcome,
			ErrorType:    ev.ErrorType,
			ErrorMessage: ev.ErrorMessage,
			DurationMS:   ev.DurationMS,
		})
	}

	if s.metrics != nil {
		s.metrics.WriteDirective(ev.Namespace, ev.Name, ev.Outcome, ev.ErrorType, elapsed)
	}

	s.hub.Broadcast(EventDirectiveExecuted, ev)
	if failed {
		s.hub.Broadcast(EventDirectiveFailed, ev)
	}

	if s.events != nil && s.eventTopic != "" {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Warn("failed to encode directive event", "error", err)
			return
		}
		if err := s.events.Publish(s.eventTopic, payload, s.eventQoS, false); err != nil {
			s.logger.Warn("failed to publish directive event", "topic", s.eventTopic, "error", err)
		}
	}
}
