package http

import (
	"net/http"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/telemetry"
)

func (s *Server) createStory(w http.ResponseWriter, r *http.Request) {
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
	image, err := readUpload(r, "image", "image/")
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	defer closeUpload(image)

	story, err := s.svc.Stories.CreateStory(r.Context(), viewer, image)
	if err != nil {
		writeError(w, r, prefs, err)
		return
	}
	telemetry.StoriesCreated.Inc()
	writeData(w, http.StatusCreated, prefs, toStoryDTO(story))
}

func (s *Server) storyFeed(w http.ResponseWriter, r *http.Request) {
	prefs := s.prefs.Load(r)

	stories, err := s.svc.Feed.ComposeStoryFeed(r.Context(), ViewerFromContext(r.Context()))
	if err != nil {
		telemetry.FeedCompositions.WithLabelValues("story", "error").Inc()
		writeError(w, r, prefs, err)
		return
	}
	telemetry.FeedCompositions.WithLabelValues("story", "ok").Inc()
	writeData(w, http.StatusOK, prefs, toStoryDTOs(stories))
}
