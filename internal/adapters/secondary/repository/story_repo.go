package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

const storyColumns = `id, author_id, image_key, image_url, created_at, expires_at`

type StoryRepo struct {
	db *pgxpool.Pool
}

func NewStoryRepo(pool *pgxpool.Pool) *StoryRepo {
	return &StoryRepo{db: pool}
}

// Save : ON CONFLICT DO NOTHING, une story déjà persistée garde son expires_at
func (r *StoryRepo) Save(ctx context.Context, story *domain.Story) error {
	q := `
		INSERT INTO stories (id, author_id, image_key, image_url, created_at, expires_at)
		VALUES (@id, @author_id, @image_key, @image_url, @created_at, @expires_at)
		ON CONFLICT (id) DO NOTHING
	`
	args := pgx.NamedArgs{
		"id":         story.ID,
		"author_id":  story.AuthorID,
		"image_key":  story.Image.Key,
		"image_url":  story.Image.URL,
		"created_at": story.CreatedAt,
		"expires_at": story.ExpiresAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("db: save story: %w", err)
	}
	return nil
}

// ListActiveByAuthors : le filtre d'expiration est fait en SQL, le service revérifie
func (r *StoryRepo) ListActiveByAuthors(ctx context.Context, authorIDs []string, at time.Time) ([]*domain.Story, error) {
	if len(authorIDs) == 0 {
		return []*domain.Story{}, nil
	}

	q := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE author_id = ANY($1) AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, q, authorIDs, at)
	if err != nil {
		return nil, fmt.Errorf("db: list active stories: %w", err)
	}
	return collectStories(rows)
}

func (r *StoryRepo) ListExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Story, error) {
	q := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list expired stories: %w", err)
	}
	return collectStories(rows)
}

func (r *StoryRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("db: delete stories: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectStories(rows pgx.Rows) ([]*domain.Story, error) {
	stories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Story, error) {
		s := &domain.Story{Image: domain.Media{Type: domain.MediaTypeImage}}
		err := row.Scan(&s.ID, &s.AuthorID, &s.Image.Key, &s.Image.URL, &s.CreatedAt, &s.ExpiresAt)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	return stories, nil
}
