package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

// --- Fakes en mémoire des ports secondaires ---

type memoryUsers struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	updateErr error
}

func newMemoryUsers(users ...*domain.User) *memoryUsers {
	m := &memoryUsers{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryUsers) Save(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memoryUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

type edge struct{ actor, target string }

type memoryGraph struct {
	mu    sync.Mutex
	edges map[edge]bool
	// insertion order, pour des listes déterministes
	order []edge
}

func newMemoryGraph() *memoryGraph {
	return &memoryGraph{edges: make(map[edge]bool)}
}

func (g *memoryGraph) EnsureSchema(context.Context) error { return nil }

func (g *memoryGraph) CreateRelation(_ context.Context, actorID, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := edge{actorID, targetID}
	if !g.edges[e] {
		g.edges[e] = true
		g.order = append(g.order, e)
	}
	return nil
}

func (g *memoryGraph) DeleteRelation(_ context.Context, actorID, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, edge{actorID, targetID})
	return nil
}

func (g *memoryGraph) GetRelationStatus(_ context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &domain.RelationStatus{
		IsFollowing:  g.edges[edge{actorID, targetID}],
		IsFollowedBy: g.edges[edge{targetID, actorID}],
	}, nil
}

func (g *memoryGraph) ListFollowingIDs(_ context.Context, userID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := []string{}
	for _, e := range g.order {
		if e.actor == userID && g.edges[e] {
			ids = append(ids, e.target)
		}
	}
	return ids, nil
}

func (g *memoryGraph) ListFollowerIDs(_ context.Context, userID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := []string{}
	for _, e := range g.order {
		if e.target == userID && g.edges[e] {
			ids = append(ids, e.actor)
		}
	}
	return ids, nil
}

type memoryStories struct {
	mu      sync.Mutex
	stories []*domain.Story
	byID    map[string]*domain.Story
	err     error
}

func newMemoryStories() *memoryStories {
	return &memoryStories{byID: make(map[string]*domain.Story)}
}

// Save reproduit le "ON CONFLICT DO NOTHING" du repo Postgres
func (m *memoryStories) Save(_ context.Context, s *domain.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[s.ID]; ok {
		return nil
	}
	cp := *s
	m.byID[s.ID] = &cp
	m.stories = append(m.stories, &cp)
	return nil
}

// ListActiveByAuthors renvoie volontairement dans l'ordre d'insertion
func (m *memoryStories) ListActiveByAuthors(_ context.Context, authorIDs []string, at time.Time) ([]*domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := toSet(authorIDs)
	var out []*domain.Story
	for _, s := range m.stories {
		if set[s.AuthorID] && at.Before(s.ExpiresAt) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStories) ListExpiredBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Story
	for _, s := range m.stories {
		if s.ExpiresAt.Before(cutoff) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStories) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := toSet(ids)
	kept := m.stories[:0]
	var n int64
	for _, s := range m.stories {
		if set[s.ID] {
			delete(m.byID, s.ID)
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.stories = kept
	return n, nil
}

type pair struct{ post, user string }

type memoryPosts struct {
	mu       sync.Mutex
	posts    []*domain.Post
	likes    map[pair]bool
	saves    map[pair]bool
	comments []*domain.Comment
}

func newMemoryPosts() *memoryPosts {
	return &memoryPosts{likes: make(map[pair]bool), saves: make(map[pair]bool)}
}

func (m *memoryPosts) Save(_ context.Context, p *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, p)
	return nil
}

func (m *memoryPosts) FindByID(_ context.Context, id string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
}

// List renvoie l'ordre d'insertion : c'est le service qui doit trier
func (m *memoryPosts) List(_ context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Post
	for _, p := range m.posts {
		if filter.Tag != "" && !contains(p.Tags, filter.Tag) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListByAuthor : l'index dans m.posts joue le rôle de seq
func (m *memoryPosts) ListByAuthor(_ context.Context, authorID string, limit int, after *domain.PostCursor) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	afterSeq := -1
	if after != nil {
		for i, p := range m.posts {
			if p.ID == after.PostID {
				afterSeq = i
			}
		}
	}

	var out []*domain.Post
	for i, p := range m.posts {
		if p.AuthorID != authorID {
			continue
		}
		if after != nil {
			older := p.Publish.Before(after.Publish)
			tiedAfter := p.Publish.Equal(after.Publish) && afterSeq >= 0 && i > afterSeq
			if !older && !tiedAfter {
				continue
			}
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Publish.After(out[j].Publish) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryPosts) listBy(set map[pair]bool, userID string) []*domain.Post {
	var out []*domain.Post
	for _, p := range m.posts {
		if set[pair{p.ID, userID}] {
			out = append(out, p)
		}
	}
	return out
}

func (m *memoryPosts) ListLikedBy(_ context.Context, userID string) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listBy(m.likes, userID), nil
}

func (m *memoryPosts) ListSavedBy(_ context.Context, userID string) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listBy(m.saves, userID), nil
}

func (m *memoryPosts) Interactions(_ context.Context, userID string, ids []string) (map[string]bool, map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	liked, saved := map[string]bool{}, map[string]bool{}
	for _, id := range ids {
		if m.likes[pair{id, userID}] {
			liked[id] = true
		}
		if m.saves[pair{id, userID}] {
			saved[id] = true
		}
	}
	return liked, saved, nil
}

func (m *memoryPosts) HasLike(_ context.Context, postID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.likes[pair{postID, userID}], nil
}

func (m *memoryPosts) AddLike(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes[pair{postID, userID}] = true
	return nil
}

func (m *memoryPosts) RemoveLike(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.likes, pair{postID, userID})
	return nil
}

func (m *memoryPosts) HasSave(_ context.Context, postID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[pair{postID, userID}], nil
}

func (m *memoryPosts) AddSave(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[pair{postID, userID}] = true
	return nil
}

func (m *memoryPosts) RemoveSave(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, pair{postID, userID})
	return nil
}

func (m *memoryPosts) SaveComment(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, c)
	return nil
}

func (m *memoryPosts) ListComments(_ context.Context, postID string) ([]*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Comment
	for _, c := range m.comments {
		if c.PostID == postID && c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryPosts) ListCommentsByUser(_ context.Context, userID string) ([]*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Comment
	for _, c := range m.comments {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
	err     error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Put(_ context.Context, prefix string, u *domain.Upload) (domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Media{}, s.err
	}
	data, err := io.ReadAll(u.Body)
	if err != nil {
		return domain.Media{}, err
	}
	s.seq++
	key := fmt.Sprintf("%s/%d-%s", prefix, s.seq, u.Filename)
	s.objects[key] = data
	return domain.Media{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) record(ev string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) PublishStoryCreated(_ context.Context, s *domain.Story) error {
	return p.record("story.created:" + s.ID)
}

func (p *recordingPublisher) PublishPostCreated(_ context.Context, post *domain.Post) error {
	return p.record("post.created:" + post.ID)
}

func (p *recordingPublisher) PublishPostLiked(_ context.Context, postID, _ string) error {
	return p.record("post.liked:" + postID)
}

func (p *recordingPublisher) PublishUserFollowed(_ context.Context, actorID, targetID string) error {
	return p.record("user.followed:" + actorID + "->" + targetID)
}

func (p *recordingPublisher) PublishUserRegistered(_ context.Context, userID, _ string) error {
	return p.record("user.registered:" + userID)
}

// --- Helpers ---

var errBoom = errors.New("boom")

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
