package adapthttp

import (
	"net/http"

	"github.com/gorilla/mux"

	"nutriportal/internal/domain"
	"nutriportal/internal/grocery"
)

type menuBody struct {
	WeeklyMenu domain.WeeklyMenu `json:"weeklyMenu"`
}

func sectionsResponse(list grocery.List) map[string]any {
	return map[string]any{"sections": list.Sections(), "count": list.Len()}
}

func (s *Server) handleGroceryList(w http.ResponseWriter, r *http.Request) {
	list, err := s.grocery.ListForUser(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sectionsResponse(list))
}

// handleGroceryPreview builds a list from a menu that is not stored yet.
func (s *Server) handleGroceryPreview(w http.ResponseWriter, r *http.Request) {
	var body menuBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, sectionsResponse(s.grocery.Build(body.WeeklyMenu)))
}

func (s *Server) handlePutMenu(w http.ResponseWriter, r *http.Request) {
	var body menuBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.grocery.SetMenu(r.Context(), mux.Vars(r)["userID"], body.WeeklyMenu); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
