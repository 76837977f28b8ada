package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/telemetry"
)

const (
	maxUploadSize   = 32 << 20 // 32 MB par requête multipart
	multipartMemory = 8 << 20
)

type Services struct {
	Identity ports.IdentityService
	Stories  ports.StoryService
	Feed     ports.FeedService
	Posts    ports.PostService
	Graph    ports.GraphService
}

type Server struct {
	svc            Services
	prefs          *PreferencesStore
	allowedOrigins []string
}

func NewServer(svc Services, prefs *PreferencesStore, allowedOrigins []string) *Server {
	return &Server{svc: svc, prefs: prefs, allowedOrigins: allowedOrigins}
}

// Handler assemble la chaîne : OTEL (racine) -> CORS -> chi
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Routes()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "baggage", "traceparent"},
		AllowCredentials: true,
	})
	h = c.Handler(h)

	return otelhttp.NewHandler(h, "blog-service", otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.svc.Identity))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", s.getUser)
			r.Post("/follow", s.follow)
			r.Delete("/follow", s.unfollow)
			r.Post("/follow/toggle", s.toggleFollow)
			r.Get("/followers", s.listFollowers)
			r.Get("/following", s.listFollowing)
			r.Get("/posts", s.listPostsByAuthor)
		})

		r.Route("/stories", func(r chi.Router) {
			r.Post("/", s.createStory)
			r.Get("/feed", s.storyFeed)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.postFeed)
			r.Post("/", s.createPost)
			r.Get("/{id}", s.getPost)
			r.Post("/{id}/like/toggle", s.toggleLike)
			r.Put("/{id}/like", s.setLike)
			r.Post("/{id}/save/toggle", s.toggleSave)
			r.Put("/{id}/save", s.setSaved)
			r.Post("/{id}/comments", s.addComment)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/", s.getMe)
			r.Put("/profile", s.updateProfile)
			r.Put("/password", s.changePassword)
			r.Get("/comments", s.listMyComments)
			r.Get("/liked", s.listLiked)
			r.Get("/saved", s.listSaved)
		})

		r.Get("/settings/preferences", s.getPreferences)
		r.Put("/settings/preferences", s.putPreferences)
	})

	return r
}

// metrics enregistre la durée par route (pattern chi, pas l'URL brute)
func metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		telemetry.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
