package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, prefs, err)
		return
	}

	res, err := s.svc.Identity.Register(r.Context(), ports.RegisterCmd{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusCreated, prefs, toAuthDTO(res))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, prefs, err)
		return
	}

	res, err := s.svc.Identity.Login(r.Context(), ports.LoginCmd{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, toAuthDTO(res))
}

// getUser : profil public, plus la relation si le viewer est connecté
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	user, err := s.svc.Identity.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}

	profile := ProfileDTO{User: toUserDTO(user)}
	if viewer.IsAuthenticated() && viewer.UserID != id {
		status, err := s.svc.Graph.CheckRelation(r.Context(), viewer.UserID, id)
		if err != nil {
			writeError(w, r, prefs, err)
			return
		}
		profile.Relation = &RelationDTO{Following: status.IsFollowing, FollowedBy: status.IsFollowedBy}
	}
	writeData(w, http.StatusOK, prefs, profile)
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())

	if err := s.svc.Graph.FollowUser(r.Context(), viewer.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, map[string]bool{"following": true})
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())

	if err := s.svc.Graph.UnfollowUser(r.Context(), viewer.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, map[string]bool{"following": false})
}

func (s *Server) toggleFollow(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())

	following, err := s.svc.Graph.ToggleFollow(r.Context(), viewer.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, map[string]bool{"following": following})
}

func (s *Server) listFollowers(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	ids, err := s.svc.Graph.ListFollowers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, ids)
}

func (s *Server) listFollowing(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	ids, err := s.svc.Graph.ListFollowing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, ids)
}
