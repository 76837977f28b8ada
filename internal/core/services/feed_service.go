package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

var tracer = otel.Tracer("blog-service")

type feedService struct {
	users   ports.UserRepository
	graph   ports.GraphRepository
	stories ports.StoryRepository
	posts   ports.PostRepository
	now     func() time.Time
}

func NewFeedService(users ports.UserRepository, graph ports.GraphRepository, stories ports.StoryRepository, posts ports.PostRepository) *feedService {
	return &feedService{
		users:   users,
		graph:   graph,
		stories: stories,
		posts:   posts,
		now:     time.Now,
	}
}

func (s *feedService) ComposeStoryFeed(ctx context.Context, viewer domain.Viewer) ([]*domain.Story, error) {
	ctx, span := tracer.Start(ctx, "feed.compose_stories")
	defer span.End()

	// 1. Pas de feed de stories pour les anonymes
	if !viewer.IsAuthenticated() {
		return []*domain.Story{}, nil
	}
	if _, err := s.users.GetByID(ctx, viewer.UserID); err != nil {
		return nil, err
	}

	// 2. Auteurs suivis
	followed, err := s.graph.ListFollowingIDs(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	span.SetAttributes(attribute.Int("feed.followed", len(followed)))
	if len(followed) == 0 {
		return []*domain.Story{}, nil
	}

	// 3. Stories actives de ces auteurs
	now := s.now()
	candidates, err := s.stories.ListActiveByAuthors(ctx, followed, now)
	if err != nil {
		return nil, fmt.Errorf("list active stories: %w", err)
	}

	// 4. Une seule story par auteur : la plus récente
	return latestPerAuthor(candidates, toSet(followed), now), nil
}

// latestPerAuthor ne fait pas confiance au filtre du repository :
// auteur suivi ET story active sont revérifiés ici.
func latestPerAuthor(candidates []*domain.Story, followed map[string]bool, now time.Time) []*domain.Story {
	latest := make(map[string]*domain.Story)
	for _, st := range candidates {
		if !followed[st.AuthorID] || !st.IsActive(now) {
			continue
		}
		cur, ok := latest[st.AuthorID]
		if !ok || st.CreatedAt.After(cur.CreatedAt) {
			latest[st.AuthorID] = st
		}
	}

	feed := make([]*domain.Story, 0, len(latest))
	for _, st := range latest {
		feed = append(feed, st)
	}
	// Plus récente d'abord, ID pour un ordre déterministe
	sort.Slice(feed, func(i, j int) bool {
		if feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].ID < feed[j].ID
		}
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed
}

func (s *feedService) ComposePostFeed(ctx context.Context, viewer domain.Viewer, filter domain.PostFilter) ([]domain.FeedPost, error) {
	ctx, span := tracer.Start(ctx, "feed.compose_posts")
	defer span.End()

	filter.Tag = domain.Slugify(filter.Tag)
	posts, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	span.SetAttributes(attribute.Int("feed.posts", len(posts)))

	// Le repo trie déjà, mais l'ordre est une règle métier : tri stable ici aussi
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Publish.After(posts[j].Publish)
	})

	feed := make([]domain.FeedPost, len(posts))
	for i, p := range posts {
		feed[i] = domain.FeedPost{Post: p}
	}
	if !viewer.IsAuthenticated() || len(posts) == 0 {
		return feed, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, saved, err := s.posts.Interactions(ctx, viewer.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	for i := range feed {
		feed[i].Liked = liked[feed[i].Post.ID]
		feed[i].Saved = saved[feed[i].Post.ID]
	}
	return feed, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
