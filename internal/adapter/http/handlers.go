package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/remodel"
)

const internalErrorMessage = "failed to process remodel request"

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxRequestBytes)
	}

	var req remodel.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	out, err := s.svc.Estimate(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	switch o := out.(type) {
	case remodel.Complete:
		writeJSON(w, http.StatusOK, o.Record)
	case remodel.NeedsRetry:
		writeJSON(w, http.StatusOK, o)
	default:
		s.logger.Error("unexpected estimate outcome", "type", out)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	switch action := r.URL.Query().Get("action"); action {
	case "get-api-key":
		if s.opts.MapsAPIKey == "" {
			writeError(w, http.StatusInternalServerError, "map API key not configured")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"apiKey": s.opts.MapsAPIKey})
	default:
		writeError(w, http.StatusBadRequest, "unsupported action")
	}
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// writeServiceError maps the domain error taxonomy onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrRemodelNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("remodel request failed", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}
