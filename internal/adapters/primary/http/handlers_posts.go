package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/telemetry"
)

func (s *Server) postFeed(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	filter := domain.PostFilter{Tag: r.URL.Query().Get("tag")}

	feed, err := s.svc.Feed.ComposePostFeed(r.Context(), ViewerFromContext(r.Context()), filter)
	if err != nil {
		telemetry.FeedCompositions.WithLabelValues("post", "error").Inc()
		writeError(w, r, prefs, err)
		return
	}
	telemetry.FeedCompositions.WithLabelValues("post", "ok").Inc()
	writeData(w, http.StatusOK, prefs, toFeedPostDTOs(feed))
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
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

	publish, err := parsePublish(r.FormValue("publish"))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	image, err := readUpload(r, "image", "image/")
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	defer closeUpload(image)
	video, err := readUpload(r, "video", "video/")
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	defer closeUpload(video)

	post, err := s.svc.Posts.CreatePost(r.Context(), ports.CreatePostCmd{
		Viewer:  viewer,
		Title:   r.FormValue("title"),
		Body:    r.FormValue("body"),
		Tags:    r.MultipartForm.Value["tags"],
		Publish: publish,
		Image:   image,
		Video:   video,
	})
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusCreated, prefs, toPostDTO(post))
}

// parsePublish accepte tous les formats courants (RFC3339, "2006-01-02 15:04", ...)
func parsePublish(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: publish: %v", domain.ErrValidation, err)
	}
	return t, nil
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	detail, err := s.svc.Posts.GetPost(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, toPostDetailDTO(detail))
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, "liked", func(v domain.Viewer, id string, _ *bool) (bool, error) {
		return s.svc.Posts.ToggleLike(r.Context(), v, id)
	})
}

func (s *Server) setLike(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, "liked", func(v domain.Viewer, id string, desired *bool) (bool, error) {
		return s.svc.Posts.SetLike(r.Context(), v, id, *desired)
	})
}

func (s *Server) toggleSave(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, "saved", func(v domain.Viewer, id string, _ *bool) (bool, error) {
		return s.svc.Posts.ToggleSave(r.Context(), v, id)
	})
}

func (s *Server) setSaved(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, "saved", func(v domain.Viewer, id string, desired *bool) (bool, error) {
		return s.svc.Posts.SetSaved(r.Context(), v, id, *desired)
	})
}

// membership factorise like/save : PUT lit l'état désiré dans le corps {"liked": true}
func (s *Server) membership(w http.ResponseWriter, r *http.Request, field string, apply func(domain.Viewer, string, *bool) (bool, error)) {
	prefs := s.prefs.Load(r)
	viewer := ViewerFromContext(r.Context())

	var desired *bool
	if r.Method == http.MethodPut {
		body := map[string]*bool{}
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, prefs, err)
			return
		}
		desired = body[field]
		if desired == nil {
			writeError(w, r, prefs, fmt.Errorf("%w: %q is required", domain.ErrValidation, field))
			return
		}
	}

	state, err := apply(viewer, chi.URLParam(r, "id"), desired)
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, map[string]bool{field: state})
}

type commentRequest struct {
	Body string `json:"body"`
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, prefs, err)
		return
	}

	comment, err := s.svc.Posts.AddComment(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), req.Body)
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusCreated, prefs, toCommentDTO(comment))
}

func (s *Server) listPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, prefs, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation))
			return
		}
		limit = n
	}

	posts, next, err := s.svc.Posts.ListPostsByAuthor(r.Context(), chi.URLParam(r, "id"), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, PageDTO[PostDTO]{Items: toPostDTOs(posts), NextCursor: next})
}

func (s *Server) listLiked(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	posts, err := s.svc.Posts.ListLikedPosts(r.Context(), ViewerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, toPostDTOs(posts))
}

func (s *Server) listSaved(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)
	posts, err := s.svc.Posts.ListSavedPosts(r.Context(), ViewerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	writeData(w, http.StatusOK, prefs, toPostDTOs(posts))
}
