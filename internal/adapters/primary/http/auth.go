package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

// Clé privée pour le contexte (évite les collisions)
type contextKey struct{ name string }

var viewerCtxKey = &contextKey{"viewer"}

// Authenticate décode le header Authorization.
// Pas de header = visiteur anonyme, header invalide = 401.
func Authenticate(identity ports.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				writeError(w, r, domain.DefaultPreferences(), domain.ErrInvalidToken)
				return
			}

			userID, err := identity.ValidateToken(r.Context(), strings.TrimSpace(tokenStr))
			if err != nil {
				writeError(w, r, domain.DefaultPreferences(), domain.ErrInvalidToken)
				return
			}

			ctx := WithViewer(r.Context(), domain.Viewer{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey, v)
}

// ViewerFromContext : anonyme si aucun token n'a été présenté
func ViewerFromContext(ctx context.Context) domain.Viewer {
	v, _ := ctx.Value(viewerCtxKey).(domain.Viewer)
	return v
}
