package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ahrav/scanbridge/internal/domain/ident"
	scandomain "github.com/ahrav/scanbridge/internal/domain/scanning"
)

// startSessionRequest is the wire form of a session start. Vocabulary
// fields carry names; omitted fields inherit the configured scan defaults.
type startSessionRequest struct {
	Device        string `json:"device"`
	Source        string `json:"source,omitempty"`
	ColorMode     string `json:"color_mode,omitempty"`
	Format        string `json:"format,omitempty"`
	ResolutionDPI int    `json:"resolution_dpi,omitempty"`
}

// sessionResponse is the wire form of a session's state. Identifier fields
// are rendered as names through the vocabulary registry.
type sessionResponse struct {
	ID            string     `json:"id"`
	Device        string     `json:"device"`
	Source        string     `json:"source"`
	ColorMode     string     `json:"color_mode"`
	Format        string     `json:"format"`
	ResolutionDPI int        `json:"resolution_dpi"`
	Phase         string     `json:"phase"`
	PagesLoaded   int        `json:"pages_loaded"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	LastUpdate    time.Time  `json:"last_update"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func newSessionResponse(session *scandomain.Session) sessionResponse {
	resp := sessionResponse{
		ID:            session.ID().String(),
		Device:        session.Device(),
		Source:        session.Source().String(),
		ColorMode:     session.ColorMode().String(),
		Format:        session.Format().MIMEName(),
		ResolutionDPI: session.ResolutionDPI(),
		Phase:         session.Phase().String(),
		PagesLoaded:   session.PagesLoaded(),
		FailureReason: session.FailureReason(),
		StartedAt:     session.StartedAt(),
		LastUpdate:    session.LastUpdate(),
	}
	if completed := session.CompletedAt(); !completed.IsZero() {
		resp.CompletedAt = &completed
	}
	return resp
}

// deviceResponse is the wire form of a configured device profile.
type deviceResponse struct {
	Name             string   `json:"name"`
	Endpoint         string   `json:"endpoint"`
	Protocol         string   `json:"protocol"`
	Sources          []string `json:"sources"`
	ColorModes       []string `json:"color_modes"`
	Formats          []string `json:"formats"`
	Justification    string   `json:"justification"`
	MinResolutionDPI int      `json:"min_resolution_dpi"`
	MaxResolutionDPI int      `json:"max_resolution_dpi"`
}

func newDeviceResponse(profile *scandomain.DeviceProfile) deviceResponse {
	sources := profile.Sources()
	sourceNames := make([]string, 0, len(sources))
	for _, src := range sources {
		sourceNames = append(sourceNames, src.String())
	}

	modes := profile.ColorModes()
	modeNames := make([]string, 0, len(modes))
	for _, m := range modes {
		modeNames = append(modeNames, m.String())
	}

	formats := profile.Formats()
	formatNames := make([]string, 0, len(formats))
	for _, f := range formats {
		formatNames = append(formatNames, f.MIMEName())
	}

	minDPI, maxDPI := profile.ResolutionRange()
	return deviceResponse{
		Name:             profile.Name(),
		Endpoint:         profile.Endpoint(),
		Protocol:         profile.Proto().String(),
		Sources:          sourceNames,
		ColorModes:       modeNames,
		Formats:          formatNames,
		Justification:    profile.Justification().String(),
		MinResolutionDPI: minDPI,
		MaxResolutionDPI: maxDPI,
	}
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.metrics.IncSessionRequests(ctx)

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.IncSessionRequestErrors(ctx, "bad_json")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Device == "" {
		s.metrics.IncSessionRequestErrors(ctx, "missing_device")
		writeError(w, http.StatusBadRequest, "device is required")
		return
	}

	cmd, err := s.resolveCommand(req)
	if err != nil {
		s.metrics.IncSessionRequestErrors(ctx, "unknown_vocabulary")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.service.StartSession(ctx, cmd)
	if err != nil {
		s.writeStartSessionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, newSessionResponse(session))
}

// resolveCommand turns request names into identifiers, falling back to the
// configured defaults for omitted fields. Unknown names are reported with
// the offending field and value.
func (s *Server) resolveCommand(req startSessionRequest) (scandomain.StartSessionCommand, error) {
	cmd := scandomain.StartSessionCommand{
		Device:        req.Device,
		Source:        s.defaults.Source,
		ColorMode:     s.defaults.ColorMode,
		Format:        s.defaults.Format,
		ResolutionDPI: s.defaults.ResolutionDPI,
	}

	if req.Source != "" {
		if cmd.Source = ident.ParseSource(req.Source); cmd.Source == ident.SourceUnknown {
			return scandomain.StartSessionCommand{}, fmt.Errorf("unknown source %q", req.Source)
		}
	}
	if req.ColorMode != "" {
		if cmd.ColorMode = ident.ParseColorMode(req.ColorMode); cmd.ColorMode == ident.ColorModeUnknown {
			return scandomain.StartSessionCommand{}, fmt.Errorf("unknown color mode %q", req.ColorMode)
		}
	}
	if req.Format != "" {
		if cmd.Format = ident.ParseFormat(req.Format); cmd.Format == ident.FormatUnknown {
			return scandomain.StartSessionCommand{}, fmt.Errorf("unknown format %q", req.Format)
		}
	}
	if req.ResolutionDPI != 0 {
		if req.ResolutionDPI < 0 {
			return scandomain.StartSessionCommand{}, fmt.Errorf("invalid resolution_dpi %d", req.ResolutionDPI)
		}
		cmd.ResolutionDPI = req.ResolutionDPI
	}
	return cmd, nil
}

func (s *Server) writeStartSessionError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, scandomain.ErrUnknownDevice):
		s.metrics.IncSessionRequestErrors(ctx, "unknown_device")
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scandomain.ErrCapabilityUnsupported):
		s.metrics.IncSessionRequestErrors(ctx, "capability_unsupported")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.metrics.IncSessionRequestErrors(ctx, "internal")
		s.logger.Error(ctx, "Failed to start session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := s.service.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, scandomain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error(r.Context(), "Failed to get session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "Failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, newSessionResponse(session))
	}
	writeJSON(w, http.StatusOK, map[string][]sessionResponse{"sessions": out})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.service.ListDevices(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "Failed to list devices", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, profile := range devices {
		out = append(out, newDeviceResponse(profile))
	}
	writeJSON(w, http.StatusOK, map[string][]deviceResponse{"devices": out})
}
