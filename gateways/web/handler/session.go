package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xilidan/lingua/gateways/web/export"
	"github.com/xilidan/lingua/gateways/web/workflow"
	"github.com/xilidan/lingua/pkg/json"
	"github.com/xilidan/lingua/pkg/jwt"
	"github.com/xilidan/lingua/pkg/logger"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

type (
	sessionKey struct{}
	subjectKey struct{}
)

type (
	CreateSessionResponse struct {
		SessionID string    `json:"session_id"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	SessionResponse struct {
		SessionID   string            `json:"session_id"`
		State       workflow.State    `json:"state"`
		Mode        entity.InputMode  `json:"mode,omitempty"`
		AudioName   string            `json:"audio_name,omitempty"`
		Language    *entity.Language  `json:"language,omitempty"`
		Source      entity.Transcript `json:"source"`
		Translation entity.Transcript `json:"translation"`
		Error       string            `json:"error,omitempty"`
		Exportable  bool              `json:"exportable"`
		UpdatedAt   time.Time         `json:"updated_at"`
	}
)

func newSessionResponse(snap workflow.Snapshot) SessionResponse {
	resp := SessionResponse{
		SessionID:   snap.ID,
		State:       snap.State,
		Mode:        snap.Mode,
		AudioName:   snap.AudioName,
		Source:      snap.Source,
		Translation: snap.Translation,
		Error:       snap.Message(),
		Exportable:  snap.Exportable(),
		UpdatedAt:   snap.UpdatedAt,
	}
	if !snap.Language.IsZero() {
		lang := snap.Language
		resp.Language = &lang
	}
	return resp
}

func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := h.manager.Create()

	token, err := jwt.Generate(r.Context(), s.ID(), h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		h.manager.Delete(s.ID())
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to issue session token"))
		return
	}

	logger.Info(r.Context(), "session opened", slog.String("session_id", s.ID()))
	json.WriteJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID(),
		Token:     token,
		ExpiresAt: time.Now().Add(h.cfg.TokenTTL),
	})
}

// authorizeSession admits requests whose bearer token names the session in the path.
func (h *Handler) authorizeSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := h.authenticate(w, r)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		if subject != id {
			json.WriteError(w, http.StatusForbidden, fmt.Errorf("access denied"))
			return
		}

		s, ok := h.manager.Get(id)
		if !ok {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("session not found"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorizeSubject admits any request carrying a valid session token and
// records the token's session id for handlers that scope reads by owner.
func (h *Handler) authorizeSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := jwt.ParseTokenFromHeader(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err)
		return "", false
	}

	subject, err := jwt.ParseSessionID(r.Context(), token, h.cfg.JWTSecret)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, jwt.ErrInvalidToken)
		return "", false
	}
	return subject, true
}

func subjectFrom(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey{}).(string)
	return subject
}

func sessionFrom(ctx context.Context) *workflow.Session {
	s, _ := ctx.Value(sessionKey{}).(*workflow.Session)
	return s
}

func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	json.WriteJSON(w, http.StatusOK, newSessionResponse(s.Snapshot()))
}

func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	h.manager.Delete(s.ID())
	w.WriteHeader(http.StatusNoContent)
}

// GenerateHandler starts transcription and translation. The pipeline runs in
// the background; clients poll the session until it leaves the busy states.
func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())

	req, err := h.parseGenerateRequest(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	if err := h.manager.Start(s, req); err != nil {
		var validationErr *entity.ValidationError
		switch {
		case errors.As(err, &validationErr):
			json.WriteError(w, http.StatusBadRequest, validationErr)
		case errors.Is(err, workflow.ErrBusy):
			json.WriteError(w, http.StatusConflict, err)
		default:
			logger.ErrorErr(r.Context(), "failed to start generation", err)
			json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to start generation"))
		}
		return
	}

	json.WriteJSON(w, http.StatusAccepted, newSessionResponse(s.Snapshot()))
}

// ExportHandler streams the finished pair as a PDF or text attachment.
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()

	format := export.FormatPDF
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := export.ParseFormat(raw)
		if err != nil {
			json.WriteError(w, http.StatusBadRequest, err)
			return
		}
		format = f
	}

	if snap.State.Busy() || !snap.Exportable() {
		json.WriteError(w, http.StatusConflict, export.ErrNotReady)
		return
	}

	pair := export.Pair{
		Source:      snap.Source,
		Translation: snap.Translation,
		Language:    snap.Language,
		Mode:        snap.Mode,
		AudioName:   snap.AudioName,
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(pair, format, &buf); err != nil {
		switch {
		case errors.Is(err, export.ErrNotReady):
			json.WriteError(w, http.StatusConflict, err)
		case errors.Is(err, export.ErrFontNotLoaded):
			json.WriteError(w, http.StatusNotImplemented, err)
		default:
			logger.ErrorErr(r.Context(), "failed to export transcript", err, slog.String("format", string(format)))
			json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to export transcript"))
		}
		return
	}

	filename := export.Filename(pair, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
