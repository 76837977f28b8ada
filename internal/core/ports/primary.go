package ports

import (
	"context"
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

// --- DRIVING (Ce que le service expose aux adapters primaires) ---

type StoryService interface {
	// CreateStory stocke l'image puis crée la story (expiration = création + 24h)
	CreateStory(ctx context.Context, viewer domain.Viewer, image *domain.Upload) (*domain.Story, error)
	IsActive(story *domain.Story, at time.Time) bool
}

type FeedService interface {
	// ComposeStoryFeed : au plus une story active (la plus récente) par auteur suivi
	ComposeStoryFeed(ctx context.Context, viewer domain.Viewer) ([]*domain.Story, error)
	// ComposePostFeed : tous les posts par publish DESC, avec les flags liked/saved du viewer
	ComposePostFeed(ctx context.Context, viewer domain.Viewer, filter domain.PostFilter) ([]domain.FeedPost, error)
}

type CreatePostCmd struct {
	Viewer  domain.Viewer
	Title   string
	Body    string
	Tags    []string
	Publish time.Time // zéro = maintenant
	Image   *domain.Upload
	Video   *domain.Upload
}

type PostService interface {
	CreatePost(ctx context.Context, cmd CreatePostCmd) (*domain.Post, error)
	GetPost(ctx context.Context, viewer domain.Viewer, postID string) (*domain.PostDetail, error)

	// Toggle* inverse l'état courant, Set* impose l'état désiré (idempotent).
	// Les deux retournent l'état final.
	ToggleLike(ctx context.Context, viewer domain.Viewer, postID string) (bool, error)
	SetLike(ctx context.Context, viewer domain.Viewer, postID string, liked bool) (bool, error)
	ToggleSave(ctx context.Context, viewer domain.Viewer, postID string) (bool, error)
	SetSaved(ctx context.Context, viewer domain.Viewer, postID string, saved bool) (bool, error)

	AddComment(ctx context.Context, viewer domain.Viewer, postID, body string) (*domain.Comment, error)

	// 👇 Lectures profil
	ListPostsByAuthor(ctx context.Context, authorID string, limit int, cursor string) ([]*domain.Post, string, error)
	ListLikedPosts(ctx context.Context, viewer domain.Viewer) ([]*domain.Post, error)
	ListSavedPosts(ctx context.Context, viewer domain.Viewer) ([]*domain.Post, error)
	ListCommentsByUser(ctx context.Context, viewer domain.Viewer) ([]*domain.Comment, error)
}

type GraphService interface {
	FollowUser(ctx context.Context, actorID, targetID string) error
	UnfollowUser(ctx context.Context, actorID, targetID string) error
	ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error)
	CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	ListFollowers(ctx context.Context, userID string) ([]string, error)
	ListFollowing(ctx context.Context, userID string) ([]string, error)
}

// --- INPUTS / OUTPUTS identité ---

type RegisterCmd struct {
	Email    string
	Password string
	Username string
}

type LoginCmd struct {
	Email    string
	Password string
}

type AuthResponse struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// UpdateProfileCmd : champs nil = inchangés
type UpdateProfileCmd struct {
	Viewer   domain.Viewer
	Username *string
	Email    *string
	Avatar   *domain.Upload
}

type ChangePasswordCmd struct {
	Viewer  domain.Viewer
	Current string
	New     string
}

type IdentityService interface {
	Register(ctx context.Context, cmd RegisterCmd) (*AuthResponse, error)
	Login(ctx context.Context, cmd LoginCmd) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (string, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	UpdateProfile(ctx context.Context, cmd UpdateProfileCmd) (*domain.User, error)
	// ChangePassword vérifie l'ancien mot de passe, les jetons en cours restent valides
	ChangePassword(ctx context.Context, cmd ChangePasswordCmd) error
}
