package ports

import (
	"context"
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

// --- DRIVEN (Ce dont le service a besoin) ---

// StoryRepository n'a volontairement pas d'Update : une story est immuable.
type StoryRepository interface {
	// Save insère la story. Une identité déjà connue n'est jamais réécrite.
	Save(ctx context.Context, story *domain.Story) error
	// ListActiveByAuthors : stories des auteurs donnés avec expires_at > at
	ListActiveByAuthors(ctx context.Context, authorIDs []string, at time.Time) ([]*domain.Story, error)

	// Utilisé par le job de purge uniquement
	ListExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Story, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, postID string) (*domain.Post, error)

	// List : feed complet, publish DESC puis ordre de création
	List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error)
	// Pagination profil (keyset sur publish puis ordre de création). after nil = première page
	ListByAuthor(ctx context.Context, authorID string, limit int, after *domain.PostCursor) ([]*domain.Post, error)
	ListLikedBy(ctx context.Context, userID string) ([]*domain.Post, error)
	ListSavedBy(ctx context.Context, userID string) ([]*domain.Post, error)

	// Interactions renvoie, parmi postIDs, ceux likés / sauvegardés par userID
	Interactions(ctx context.Context, userID string, postIDs []string) (liked, saved map[string]bool, err error)

	HasLike(ctx context.Context, postID, userID string) (bool, error)
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error

	HasSave(ctx context.Context, postID, userID string) (bool, error)
	AddSave(ctx context.Context, postID, userID string) error
	RemoveSave(ctx context.Context, postID, userID string) error

	SaveComment(ctx context.Context, comment *domain.Comment) error
	// ListComments : commentaires actifs, created ASC
	ListComments(ctx context.Context, postID string) ([]*domain.Comment, error)
	// ListCommentsByUser : commentaires écrits par userID, created DESC
	ListCommentsByUser(ctx context.Context, userID string) ([]*domain.Comment, error)
}

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// GraphRepository est le port vers la base graphe (Neo4j)
type GraphRepository interface {
	// EnsureSchema crée les contraintes et index (Idempotent)
	EnsureSchema(ctx context.Context) error

	// CreateRelation et DeleteRelation sont idempotents (sémantique d'ensemble)
	CreateRelation(ctx context.Context, actorID, targetID string) error
	DeleteRelation(ctx context.Context, actorID, targetID string) error
	GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	ListFollowingIDs(ctx context.Context, userID string) ([]string, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// EventPublisher est le port vers NATS.
// Les publications sont "best effort" : l'appelant logge mais n'échoue pas.
type EventPublisher interface {
	PublishStoryCreated(ctx context.Context, story *domain.Story) error
	PublishPostCreated(ctx context.Context, post *domain.Post) error
	PublishPostLiked(ctx context.Context, postID, userID string) error
	PublishUserFollowed(ctx context.Context, actorID, targetID string) error
	PublishUserRegistered(ctx context.Context, userID, email string) error
}

// MediaStorage abstrait le stockage objet (S3/MinIO)
type MediaStorage interface {
	Put(ctx context.Context, prefix string, upload *domain.Upload) (domain.Media, error)
	Delete(ctx context.Context, key string) error
}

// PasswordHasher abstrait l'algorithme de hachage (Argon2)
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenProvider abstrait la génération de JWT
type TokenProvider interface {
	GenerateTokens(user *domain.User) (access string, refresh string, err error)
	Validate(token string) (userID string, err error)
	AccessExpiry() time.Duration
}
