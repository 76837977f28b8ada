package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

const (
	postImagePrefix = "posts"
	postVideoPrefix = "posts/videos"

	defaultPageSize = 20
	maxPageSize     = 100
)

var ErrInvalidPageToken = fmt.Errorf("%w: invalid page token", domain.ErrValidation)

type postService struct {
	repo      ports.PostRepository
	users     ports.UserRepository
	storage   ports.MediaStorage
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewPostService(repo ports.PostRepository, users ports.UserRepository, storage ports.MediaStorage, pub ports.EventPublisher) *postService {
	return &postService{
		repo:      repo,
		users:     users,
		storage:   storage,
		publisher: pub,
		now:       time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, cmd ports.CreatePostCmd) (*domain.Post, error) {
	if !cmd.Viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}

	// Validation AVANT l'upload pour ne pas stocker de médias pour rien
	post, err := domain.NewPost(cmd.Viewer.UserID, cmd.Title, cmd.Body, cmd.Tags, nil, cmd.Publish, s.now())
	if err != nil {
		return nil, err
	}

	uploads := []struct {
		prefix string
		upload *domain.Upload
		kind   domain.MediaType
	}{
		{postImagePrefix, cmd.Image, domain.MediaTypeImage},
		{postVideoPrefix, cmd.Video, domain.MediaTypeVideo},
	}
	for _, u := range uploads {
		if u.upload.IsEmpty() {
			continue
		}
		m, err := s.storage.Put(ctx, u.prefix, u.upload)
		if err != nil {
			s.cleanupMedia(ctx, post.Media)
			return nil, fmt.Errorf("store post media: %w", err)
		}
		m.Type = u.kind
		post.Media = append(post.Media, m)
	}

	// 1. Sauvegarde DB (Source of Truth)
	if err := s.repo.Save(ctx, post); err != nil {
		s.cleanupMedia(ctx, post.Media)
		return nil, fmt.Errorf("save post: %w", err)
	}

	// 2. Publication événement, best effort
	if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
		slog.ErrorContext(ctx, "Failed to publish post.created", "post_id", post.ID, "error", err)
	}

	return post, nil
}

func (s *postService) cleanupMedia(ctx context.Context, media []domain.Media) {
	for _, m := range media {
		if err := s.storage.Delete(ctx, m.Key); err != nil {
			slog.WarnContext(ctx, "Failed to remove orphan post media", "key", m.Key, "error", err)
		}
	}
}

func (s *postService) GetPost(ctx context.Context, viewer domain.Viewer, postID string) (*domain.PostDetail, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &domain.PostDetail{FeedPost: domain.FeedPost{Post: post}}
	if viewer.IsAuthenticated() {
		liked, saved, err := s.repo.Interactions(ctx, viewer.UserID, []string{post.ID})
		if err != nil {
			return nil, fmt.Errorf("load interactions: %w", err)
		}
		detail.Liked = liked[post.ID]
		detail.Saved = saved[post.ID]
	}

	detail.Comments, err = s.repo.ListComments(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return detail, nil
}

// membership regroupe les trois opérations d'un ensemble (likes ou saves)
type membership struct {
	has    func(ctx context.Context, postID, userID string) (bool, error)
	add    func(ctx context.Context, postID, userID string) error
	remove func(ctx context.Context, postID, userID string) error
}

func (s *postService) likes() membership {
	return membership{has: s.repo.HasLike, add: s.repo.AddLike, remove: s.repo.RemoveLike}
}

func (s *postService) saves() membership {
	return membership{has: s.repo.HasSave, add: s.repo.AddSave, remove: s.repo.RemoveSave}
}

// apply est un read-modify-write : desired == nil => toggle.
// Deux toggles concurrents : le dernier écrit gagne.
func (s *postService) apply(ctx context.Context, viewer domain.Viewer, postID string, m membership, desired *bool) (bool, error) {
	if !viewer.IsAuthenticated() {
		return false, domain.ErrUnauthorized
	}
	if _, err := s.repo.FindByID(ctx, postID); err != nil {
		return false, err
	}

	current, err := m.has(ctx, postID, viewer.UserID)
	if err != nil {
		return false, err
	}

	target := !current
	if desired != nil {
		target = *desired
	}
	if target == current {
		return current, nil
	}

	if target {
		err = m.add(ctx, postID, viewer.UserID)
	} else {
		err = m.remove(ctx, postID, viewer.UserID)
	}
	if err != nil {
		return current, err
	}
	return target, nil
}

func (s *postService) ToggleLike(ctx context.Context, viewer domain.Viewer, postID string) (bool, error) {
	liked, err := s.apply(ctx, viewer, postID, s.likes(), nil)
	if err == nil && liked {
		s.publishLiked(ctx, postID, viewer.UserID)
	}
	return liked, err
}

func (s *postService) SetLike(ctx context.Context, viewer domain.Viewer, postID string, liked bool) (bool, error) {
	state, err := s.apply(ctx, viewer, postID, s.likes(), &liked)
	if err == nil && state && liked {
		s.publishLiked(ctx, postID, viewer.UserID)
	}
	return state, err
}

func (s *postService) publishLiked(ctx context.Context, postID, userID string) {
	if err := s.publisher.PublishPostLiked(ctx, postID, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish post.liked", "post_id", postID, "error", err)
	}
}

func (s *postService) ToggleSave(ctx context.Context, viewer domain.Viewer, postID string) (bool, error) {
	return s.apply(ctx, viewer, postID, s.saves(), nil)
}

func (s *postService) SetSaved(ctx context.Context, viewer domain.Viewer, postID string, saved bool) (bool, error) {
	return s.apply(ctx, viewer, postID, s.saves(), &saved)
}

func (s *postService) AddComment(ctx context.Context, viewer domain.Viewer, postID, body string) (*domain.Comment, error) {
	if !viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.repo.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}

	comment, err := domain.NewComment(postID, user, body, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("save comment: %w", err)
	}
	return comment, nil
}

// ListPostsByAuthor : pagination keyset, le token opaque encode (publish, id) du dernier post
func (s *postService) ListPostsByAuthor(ctx context.Context, authorID string, limit int, cursor string) ([]*domain.Post, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	after, err := decodePageToken(cursor)
	if err != nil {
		return nil, "", err
	}

	posts, err := s.repo.ListByAuthor(ctx, authorID, limit, after)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(posts) == limit {
		last := posts[len(posts)-1]
		nextCursor, err = encodePageToken(domain.PostCursor{Publish: last.Publish, PostID: last.ID})
		if err != nil {
			return nil, "", err
		}
	}
	return posts, nextCursor, nil
}

type pageToken struct {
	Publish int64  `json:"t"`
	PostID  string `json:"i"`
}

func encodePageToken(c domain.PostCursor) (string, error) {
	payload, err := json.Marshal(pageToken{Publish: c.Publish.UnixNano(), PostID: c.PostID})
	if err != nil {
		return "", fmt.Errorf("marshal page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// decodePageToken : token vide = première page (nil)
func decodePageToken(raw string) (*domain.PostCursor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrInvalidPageToken
	}
	var tok pageToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, ErrInvalidPageToken
	}
	if tok.Publish <= 0 || tok.PostID == "" {
		return nil, ErrInvalidPageToken
	}
	return &domain.PostCursor{Publish: time.Unix(0, tok.Publish).UTC(), PostID: tok.PostID}, nil
}

func (s *postService) ListLikedPosts(ctx context.Context, viewer domain.Viewer) ([]*domain.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListLikedBy(ctx, viewer.UserID)
}

func (s *postService) ListSavedPosts(ctx context.Context, viewer domain.Viewer) ([]*domain.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListSavedBy(ctx, viewer.UserID)
}

// ListCommentsByUser inclut les commentaires désactivés : l'auteur voit tout ce qu'il a écrit
func (s *postService) ListCommentsByUser(ctx context.Context, viewer domain.Viewer) ([]*domain.Comment, error) {
	if !viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListCommentsByUser(ctx, viewer.UserID)
}
