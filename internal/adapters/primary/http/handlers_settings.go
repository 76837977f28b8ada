package http

import (
	"net/http"
)

type preferencesRequest struct {
	Theme       *string `json:"theme"`
	AccentColor *string `json:"accent_color"`
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	writeData(w, http.StatusOK, prefs, prefs)
}

// putPreferences : les champs absents gardent leur valeur courante
func (s *Server) putPreferences(w http.ResponseWriter, r *http.Request) {
	current := s.prefs.Load(r)

	var req preferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, current, err)
		return
	}

	next := current
	if req.Theme != nil {
		next.Theme = *req.Theme
	}
	if req.AccentColor != nil {
		next.AccentColor = *req.AccentColor
	}

	if err := s.prefs.Save(w, r, next); err != nil {
		writeError(w, r, current, err)
		return
	}
	writeData(w, http.StatusOK, next, next)
}
