package adapthttp

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dismissed, err := s.reminders.IsDismissed(r.Context(), vars["userID"], vars["itemID"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemId": vars["itemID"], "dismissed": dismissed})
}

func (s *Server) handleDismissReminder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.reminders.Dismiss(r.Context(), vars["userID"], vars["itemID"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRestoreReminder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.reminders.Restore(r.Context(), vars["userID"], vars["itemID"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	text, found, err := s.reminders.LoadDraft(r.Context(), vars["userID"], vars["itemID"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemId": vars["itemID"], "found": found, "text": text})
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		Text string `json:"text"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.reminders.SaveDraft(r.Context(), vars["userID"], vars["itemID"], body.Text); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.reminders.ClearDraft(r.Context(), vars["userID"], vars["itemID"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
