package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/journal"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// IssueResponse is returned when a command has been accepted.
type IssueResponse struct {
	RequestID  string           `json:"request_id"`
	Command    string           `json:"command"`
	ResourceID string           `json:"resource_id"`
	Path       diagnostics.Path `json:"path"`
	Status     string           `json:"status"`
}

// ResourceView is a configured resource as listed by the API.
type ResourceView struct {
	*resource.Resource
	Collection bool `json:"collection"`
}

// handleListUnits returns the supported diagnostics units.
func (s *Server) handleListUnits(w http.ResponseWriter, _ *http.Request) {
	body, err := diagnostics.SupportedUnitsJSON()
	if err != nil {
		s.logger.Error("encoding diagnostics units", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list diagnostics units")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body)) //nolint:errcheck // Best-effort write to response
}

// handleListPending returns the commands currently in flight.
func (s *Server) handleListPending(w http.ResponseWriter, _ *http.Request) {
	pending := s.dispatcher.Registry().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": pending,
		"count":   len(pending),
	})
}

// handleListResources returns the configured resource directory.
func (s *Server) handleListResources(w http.ResponseWriter, _ *http.Request) {
	list := s.resources.List()
	views := make([]ResourceView, 0, len(list))
	for _, r := range list {
		views = append(views, ResourceView{Resource: r, Collection: r.IsCollection()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resources": views,
		"count":     len(views),
	})
}

// handleGetResource returns one configured resource.
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookupResource(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ResourceView{Resource: res, Collection: res.IsCollection()})
}

func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	s.issue(w, r, diagnostics.CommandReboot)
}

func (s *Server) handleFactoryReset(w http.ResponseWriter, r *http.Request) {
	s.issue(w, r, diagnostics.CommandFactoryReset)
}

// issue starts command against the resource named in the URL and answers
// 202 once the first remote call is sent. Outcomes reach clients through
// the journal and the WebSocket hub, not this response.
func (s *Server) issue(w http.ResponseWriter, r *http.Request, command string) {
	res, ok := s.lookupResource(w, r)
	if !ok {
		return
	}

	id, err := s.dispatcher.Issue(command, res, nil)
	switch {
	case err == nil:
	case errors.Is(err, diagnostics.ErrBusy):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	case errors.Is(err, diagnostics.ErrSendFailed):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
		return
	default:
		s.logger.Error("issuing diagnostic command", "command", command, "resource_id", res.ID, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to issue command")
		return
	}

	path := diagnostics.PathSimple
	if res.IsCollection() {
		path = diagnostics.PathCollection
	}

	writeJSON(w, http.StatusAccepted, IssueResponse{
		RequestID:  id,
		Command:    command,
		ResourceID: res.ID,
		Path:       path,
		Status:     "accepted",
	})
}

func (s *Server) lookupResource(w http.ResponseWriter, r *http.Request) (*resource.Resource, bool) {
	id := chi.URLParam(r, "id")
	res, ok := s.resources.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found: "+id)
		return nil, false
	}
	return res, true
}

// handleListRequests returns journal entries.
//
// Query parameters:
//   - command: reboot or factoryreset
//   - status: pending, completed or failed
//   - uri: exact resource URI
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "request journal not configured")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Command: q.Get("command"),
		Status:  journal.Status(q.Get("status")),
		URI:     q.Get("uri"),
	}

	switch filter.Status {
	case "", journal.StatusPending, journal.StatusCompleted, journal.StatusFailed:
	default:
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "status must be pending, completed or failed")
		return
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "offset must be an integer")
		return
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing journal entries", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list requests")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetRequest returns one journal entry.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "request journal not configured")
		return
	}

	id := chi.URLParam(r, "requestID")
	entry, err := s.journal.Get(r.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "request not found: "+id)
		return
	}
	if err != nil {
		s.logger.Error("reading journal entry", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to read request")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// intParam parses an optional integer query parameter.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
