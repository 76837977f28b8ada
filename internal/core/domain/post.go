package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxTitleLength = 250

type Post struct {
	ID         string
	AuthorID   string
	Title      string
	Body       string
	Media      []Media
	Tags       []string
	TotalLikes int
	Publish    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FeedPost est un post vu par un viewer donné.
type FeedPost struct {
	Post  *Post
	Liked bool
	Saved bool
}

// PostDetail ajoute les commentaires actifs.
type PostDetail struct {
	FeedPost
	Comments []*Comment
}

type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Name      string
	Body      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostCursor repère le dernier post d'une page (publish, puis identité pour les ex aequo)
type PostCursor struct {
	Publish time.Time
	PostID  string
}

// PostFilter encapsule les critères de lecture du feed
type PostFilter struct {
	Tag string
}

// NewPost valide et construit un post. publish vide = maintenant.
func NewPost(authorID, title, body string, tags []string, media []Media, publish, now time.Time) (*Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if authorID == "" {
		return nil, fmt.Errorf("%w: author is required", ErrValidation)
	}
	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and body are required", ErrValidation)
	}
	if len([]rune(title)) > MaxTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
	}

	now = now.UTC()
	if publish.IsZero() {
		publish = now
	}

	return &Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		Media:     media,
		Tags:      NormalizeTags(tags),
		Publish:   publish.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewComment : le nom affiché est celui de l'utilisateur.
func NewComment(postID string, user *User, body string, now time.Time) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrValidation)
	}
	now = now.UTC()
	return &Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    user.ID,
		Name:      user.Username,
		Body:      body,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Lettres (accents compris), marques combinantes et chiffres de toutes écritures
var nonSlug = regexp.MustCompile(`[^\p{L}\p{M}\p{N}]+`)

// Slugify : "Go Lang!" -> "go-lang", "Café crème" -> "café-crème"
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

// NormalizeTags accepte aussi une seule entrée "a, b, c".
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, t := range strings.Split(entry, ",") {
			slug := Slugify(t)
			if slug == "" || seen[slug] {
				continue
			}
			seen[slug] = true
			tags = append(tags, slug)
		}
	}
	return tags
}
