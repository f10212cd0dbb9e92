package adapthttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	view, err := s.measurements.History(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "items": view})
}

func (s *Server) handleAppendMeasurement(w http.ResponseWriter, r *http.Request) {
	var in measurementInput
	if err := parseJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := in.snapshot()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	entry, err := s.measurements.Append(r.Context(), mux.Vars(r)["userID"], snap)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

// The index addresses the newest-first view the client was shown. The view
// is rebuilt from the stored document right before the change.
func (s *Server) handleEditMeasurement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid index"))
		return
	}

	var in measurementInput
	if err := parseJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	values, err := in.snapshot()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	view, err := s.measurements.History(r.Context(), vars["userID"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.measurements.EditAt(r.Context(), vars["userID"], view, index, values)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid index"))
		return
	}

	view, err := s.measurements.History(r.Context(), vars["userID"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.measurements.DeleteAt(r.Context(), vars["userID"], view, index)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
}
