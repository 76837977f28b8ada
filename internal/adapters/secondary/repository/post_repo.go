package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

// DTO interne pour mapper le JSONB sans polluer le Domain avec des tags JSON
type mediaDTO struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

const postColumns = `p.id, p.author_id, p.title, p.body, p.media, p.tags, p.total_likes, p.publish, p.created_at, p.updated_at`

// Ordre du feed : publish DESC, puis ordre de création (seq)
const feedOrder = `ORDER BY p.publish DESC, p.seq ASC`

type PostRepo struct {
	db *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{db: pool}
}

func (r *PostRepo) Save(ctx context.Context, post *domain.Post) error {
	q := `
		INSERT INTO posts (id, author_id, title, body, media, tags, total_likes, publish, created_at, updated_at)
		VALUES (@id, @author_id, @title, @body, @media, @tags, @total_likes, @publish, @created_at, @updated_at)
	`
	mediaJSON, err := marshalMedia(post.Media)
	if err != nil {
		return err
	}
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	args := pgx.NamedArgs{
		"id":          post.ID,
		"author_id":   post.AuthorID,
		"title":       post.Title,
		"body":        post.Body,
		"media":       mediaJSON,
		"tags":        tags,
		"total_likes": post.TotalLikes,
		"publish":     post.Publish,
		"created_at":  post.CreatedAt,
		"updated_at":  post.UpdatedAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("db: save post: %w", err)
	}
	return nil
}

func (r *PostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, postID)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	if filter.Tag != "" {
		rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM posts p WHERE $1 = ANY(p.tags) `+feedOrder, filter.Tag)
		if err != nil {
			return nil, fmt.Errorf("db: list posts by tag: %w", err)
		}
		return collectPosts(rows)
	}

	rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM posts p `+feedOrder)
	if err != nil {
		return nil, fmt.Errorf("db: list posts: %w", err)
	}
	return collectPosts(rows)
}

// ListByAuthor : pagination keyset sur (publish DESC, seq ASC), after est le dernier post vu.
// Evite les OFFSET qui coûtent cher sur les gros profils.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string, limit int, after *domain.PostCursor) ([]*domain.Post, error) {
	// Cas 1: Première page
	if after == nil {
		q := `SELECT ` + postColumns + ` FROM posts p WHERE p.author_id = @author ` + feedOrder + ` LIMIT @limit`
		rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"author": authorID, "limit": limit})
		if err != nil {
			return nil, err
		}
		return collectPosts(rows)
	}

	// Cas 2: Page suivante. Les ex aequo sur publish continuent après le seq du curseur.
	q := `SELECT ` + postColumns + ` FROM posts p
		WHERE p.author_id = @author
		  AND (p.publish < @publish
		       OR (p.publish = @publish AND p.seq > (SELECT c.seq FROM posts c WHERE c.id = @after)))
		` + feedOrder + ` LIMIT @limit`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"author":  authorID,
		"publish": after.Publish,
		"after":   after.PostID,
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepo) ListLikedBy(ctx context.Context, userID string) ([]*domain.Post, error) {
	return r.listJoined(ctx, "post_likes", userID)
}

func (r *PostRepo) ListSavedBy(ctx context.Context, userID string) ([]*domain.Post, error) {
	return r.listJoined(ctx, "post_saves", userID)
}

// table est une constante interne (post_likes | post_saves), jamais une entrée client
func (r *PostRepo) listJoined(ctx context.Context, table, userID string) ([]*domain.Post, error) {
	q := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN ` + table + ` j ON j.post_id = p.id
		WHERE j.user_id = $1
		` + feedOrder
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("db: list %s: %w", table, err)
	}
	return collectPosts(rows)
}

// Interactions : deux lectures batch (ANY) plutôt qu'un aller-retour par post
func (r *PostRepo) Interactions(ctx context.Context, userID string, postIDs []string) (map[string]bool, map[string]bool, error) {
	liked, err := r.memberIDs(ctx, "post_likes", userID, postIDs)
	if err != nil {
		return nil, nil, err
	}
	saved, err := r.memberIDs(ctx, "post_saves", userID, postIDs)
	if err != nil {
		return nil, nil, err
	}
	return liked, saved, nil
}

func (r *PostRepo) memberIDs(ctx context.Context, table, userID string, postIDs []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if len(postIDs) == 0 {
		return set, nil
	}
	rows, err := r.db.Query(ctx, `SELECT post_id FROM `+table+` WHERE user_id = $1 AND post_id = ANY($2)`, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("db: %s lookup: %w", table, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *PostRepo) has(ctx context.Context, table, postID, userID string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE post_id = $1 AND user_id = $2)`
	if err := r.db.QueryRow(ctx, q, postID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db: %s exists: %w", table, err)
	}
	return exists, nil
}

func (r *PostRepo) HasLike(ctx context.Context, postID, userID string) (bool, error) {
	return r.has(ctx, "post_likes", postID, userID)
}

// AddLike et RemoveLike maintiennent total_likes dans la même transaction
func (r *PostRepo) AddLike(ctx context.Context, postID, userID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
		if err != nil {
			return fmt.Errorf("db: add like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE posts SET total_likes = total_likes + 1 WHERE id = $1`, postID)
		return err
	})
}

func (r *PostRepo) RemoveLike(ctx context.Context, postID, userID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return fmt.Errorf("db: remove like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE posts SET total_likes = GREATEST(total_likes - 1, 0) WHERE id = $1`, postID)
		return err
	})
}

func (r *PostRepo) HasSave(ctx context.Context, postID, userID string) (bool, error) {
	return r.has(ctx, "post_saves", postID, userID)
}

func (r *PostRepo) AddSave(ctx context.Context, postID, userID string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO post_saves (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
	if err != nil {
		return fmt.Errorf("db: add save: %w", err)
	}
	return nil
}

func (r *PostRepo) RemoveSave(ctx context.Context, postID, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM post_saves WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("db: remove save: %w", err)
	}
	return nil
}

func (r *PostRepo) SaveComment(ctx context.Context, c *domain.Comment) error {
	q := `
		INSERT INTO comments (id, post_id, user_id, name, body, active, created_at, updated_at)
		VALUES (@id, @post_id, @user_id, @name, @body, @active, @created_at, @updated_at)
	`
	args := pgx.NamedArgs{
		"id":         c.ID,
		"post_id":    c.PostID,
		"user_id":    c.UserID,
		"name":       c.Name,
		"body":       c.Body,
		"active":     c.Active,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("db: save comment: %w", err)
	}
	return nil
}

func (r *PostRepo) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	q := `
		SELECT id, post_id, user_id, name, body, active, created_at, updated_at
		FROM comments
		WHERE post_id = $1 AND active
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("db: list comments: %w", err)
	}
	return collectComments(rows)
}

// ListCommentsByUser : tous les commentaires de l'auteur, actifs ou non, created DESC
func (r *PostRepo) ListCommentsByUser(ctx context.Context, userID string) ([]*domain.Comment, error) {
	q := `
		SELECT id, post_id, user_id, name, body, active, created_at, updated_at
		FROM comments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("db: list user comments: %w", err)
	}
	return collectComments(rows)
}

func collectComments(rows pgx.Rows) ([]*domain.Comment, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Comment, error) {
		var c domain.Comment
		err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Name, &c.Body, &c.Active, &c.CreatedAt, &c.UpdatedAt)
		return &c, err
	})
}

// --- Helpers ---

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var mediaJSON []byte
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &mediaJSON, &p.Tags, &p.TotalLikes, &p.Publish, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Media = unmarshalMedia(mediaJSON)
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]*domain.Post, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Post, error) {
		return scanPost(row)
	})
}

func marshalMedia(media []domain.Media) ([]byte, error) {
	dtos := make([]mediaDTO, len(media))
	for i, m := range media {
		dtos[i] = mediaDTO{Key: m.Key, URL: m.URL, Type: string(m.Type)}
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal media: %w", err)
	}
	return data, nil
}

func unmarshalMedia(data []byte) []domain.Media {
	var dtos []mediaDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return []domain.Media{} // Fallback safe
	}
	medias := make([]domain.Media, len(dtos))
	for i, d := range dtos {
		medias[i] = domain.Media{Key: d.Key, URL: d.URL, Type: domain.MediaType(d.Type)}
	}
	return medias
}
