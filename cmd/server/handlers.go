package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/medbotorg/medbot"
	"github.com/medbotorg/medbot/nlp"
)

type handler struct {
	engine   medbot.Engine
	sessions *sessionStore
}

func newHandler(e medbot.Engine) *handler {
	return &handler{engine: e, sessions: newSessionStore()}
}

// POST /chat
// One conversational turn. An omitted session_id starts a new session; the
// minted id is returned so the client can continue the conversation.
func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Text      string `json:"text"`
		Language  string `json:"language,omitempty"`
		SessionID string `json:"session_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Language != "" && req.Language != "fr" && req.Language != "en" {
		writeError(w, http.StatusBadRequest, "language must be fr or en")
		return
	}

	sessionID, history := h.sessions.resolve(req.SessionID)

	reply, err := h.engine.Respond(ctx, medbot.Request{
		Text:     req.Text,
		Language: nlp.Language(req.Language),
		History:  history,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "chat failed")
		slog.Error("chat error", "session_id", sessionID, "error", err)
		return
	}

	h.sessions.append(sessionID, req.Text, reply.Text)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"reply":      reply,
	})
}

// POST /analyze
// Deterministic pipeline only: extraction and ranking, no generation.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Language != "" && req.Language != "fr" && req.Language != "en" {
		writeError(w, http.StatusBadRequest, "language must be fr or en")
		return
	}

	analysis := h.engine.Analyze(req.Text, nlp.Language(req.Language))
	writeJSON(w, http.StatusOK, analysis)
}

// GET /diseases?q=
func (h *handler) handleSearchDiseases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	matches := h.engine.SearchDiseases(q)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"results": matches,
	})
}

// GET /diseases/{id}
func (h *handler) handleDiseaseDetails(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	details, err := h.engine.DiseaseDetails(id)
	if err != nil {
		if errors.Is(err, medbot.ErrDiseaseNotFound) {
			writeError(w, http.StatusNotFound, "disease not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		slog.Error("disease details error", "id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// DELETE /sessions/{id}
func (h *handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.reset(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// GET /departments
func (h *handler) handleDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"departments": h.engine.Departments(),
		"specialties": h.engine.Specialties(),
	})
}

// GET /stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
