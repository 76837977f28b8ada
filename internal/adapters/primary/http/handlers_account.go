package http

import (
	"net/http"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// getMe : profil complet de l'utilisateur connecté, email compris
func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())
	if !viewer.IsAuthenticated() {
		writeError(w, r, prefs, domain.ErrUnauthorized)
		return
	}

	user, err := s.svc.Identity.GetUser(r.Context(), viewer.UserID)
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, toSelfDTO(user))
}

// updateProfile attend un multipart : username, email, avatar (tous optionnels)
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())
	if !viewer.IsAuthenticated() {
		writeError(w, r, prefs, domain.ErrUnauthorized)
		return
	}

	if err := parseMultipart(w, r); err != nil {
		writeError(w, r, prefs, err)
		return
	}
	avatar, err := readUpload(r, "avatar", "image/")
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	defer closeUpload(avatar)

	user, err := s.svc.Identity.UpdateProfile(r.Context(), ports.UpdateProfileCmd{
		Viewer:   viewer,
		Username: formField(r, "username"),
		Email:    formField(r, "email"),
		Avatar:   avatar,
	})
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, toSelfDTO(user))
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, prefs, err)
		return
	}

	err := s.svc.Identity.ChangePassword(r.Context(), ports.ChangePasswordCmd{
		Viewer:  ViewerFromContext(r.Context()),
		Current: req.CurrentPassword,
		New:     req.NewPassword,
	})
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, map[string]bool{"changed": true})
}

func (s *Server) listMyComments(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	comments, err := s.svc.Posts.ListCommentsByUser(r.Context(), ViewerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = toCommentDTO(c)
	}
	writeData(w, http.StatusOK, prefs, out)
}

// formField distingue un champ absent (nil) d'un champ vide
func formField(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
