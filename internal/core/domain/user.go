package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- ENTITÉ ---

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	ImageKey     string // avatar dans le stockage objet, vide = pas d'avatar
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Viewer est l'identité de celui qui fait la requête.
// Un Viewer vide (UserID == "") est un visiteur anonyme.
type Viewer struct {
	UserID string
}

func Anonymous() Viewer { return Viewer{} }

func (v Viewer) IsAuthenticated() bool { return v.UserID != "" }

// NewUser crée une nouvelle instance valide.
func NewUser(email, username, passwordHash string) (*User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if len(strings.TrimSpace(username)) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", ErrValidation)
	}

	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyProfile applique les champs fournis (nil = inchangé) puis valide le résultat.
// L'utilisateur n'est pas modifié si la validation échoue.
func (u *User) ApplyProfile(username, email *string, now time.Time) error {
	nextUsername, nextEmail := u.Username, u.Email
	if username != nil {
		nextUsername = strings.TrimSpace(*username)
	}
	if email != nil {
		if _, err := mail.ParseAddress(*email); err != nil {
			return fmt.Errorf("%w: invalid email format", ErrValidation)
		}
		nextEmail = strings.ToLower(strings.TrimSpace(*email))
	}
	if len(nextUsername) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", ErrValidation)
	}

	u.Username, u.Email = nextUsername, nextEmail
	u.UpdatedAt = now
	return nil
}
