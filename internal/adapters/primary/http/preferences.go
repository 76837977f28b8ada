package http

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

const (
	preferencesSession = "blog_prefs"
	prefThemeKey       = "theme"
	prefAccentKey      = "accent_color"
)

// PreferencesStore garde les préférences d'affichage dans un cookie signé.
// Elles sont lues à chaque requête, jamais stockées côté serveur.
type PreferencesStore struct {
	store *sessions.CookieStore
}

func NewPreferencesStore(secret []byte, secure bool) *PreferencesStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &PreferencesStore{store: store}
}

// Load ne renvoie jamais d'erreur : cookie absent ou altéré = défauts
func (p *PreferencesStore) Load(r *http.Request) domain.Preferences {
	prefs := domain.DefaultPreferences()

	session, err := p.store.Get(r, preferencesSession)
	if err != nil {
		return prefs
	}
	if theme, ok := session.Values[prefThemeKey].(string); ok {
		prefs.Theme = theme
	}
	if accent, ok := session.Values[prefAccentKey].(string); ok {
		prefs.AccentColor = accent
	}
	if prefs.Validate() != nil {
		return domain.DefaultPreferences()
	}
	return prefs
}

func (p *PreferencesStore) Save(w http.ResponseWriter, r *http.Request, prefs domain.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	// Get renvoie une session neuve même si le cookie existant est illisible
	session, _ := p.store.Get(r, preferencesSession)
	session.Values[prefThemeKey] = prefs.Theme
	session.Values[prefAccentKey] = prefs.AccentColor
	return session.Save(r, w)
}
