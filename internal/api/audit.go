package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
)

// handleListAudit returns paginated directive audit entries, newest first.
//
// Query parameters:
//   - namespace, name: directive header filters
//   - endpoint_id: target endpoint filter
//   - outcome: "success" or "error"
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "audit log not available")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Namespace:  q.Get("namespace"),
		Name:       q.Get("name"),
		EndpointID: q.Get("endpoint_id"),
		Outcome:    q.Get("outcome"),
	}
	if filter.Outcome != "" && filter.Outcome != audit.OutcomeSuccess && filter.Outcome != audit.OutcomeError {
		writeBadRequest(w, "outcome must be success or error")
		return
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be an integer")
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit log", "error", err)
		writeInternalError(w, "failed to list audit log")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// intParam parses an optional integer query parameter; "" is 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
