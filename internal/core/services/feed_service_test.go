package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

type feedFixture struct {
	users   *memoryUsers
	graph   *memoryGraph
	stories *memoryStories
	posts   *memoryPosts
	svc     *feedService
	now     time.Time
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	f := &feedFixture{
		users: newMemoryUsers(
			&domain.User{ID: "viewer", Username: "viewer"},
			&domain.User{ID: "alice", Username: "alice"},
			&domain.User{ID: "bob", Username: "bob"},
			&domain.User{ID: "carol", Username: "carol"},
		),
		graph:   newMemoryGraph(),
		stories: newMemoryStories(),
		posts:   newMemoryPosts(),
		now:     time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewFeedService(f.users, f.graph, f.stories, f.posts)
	f.svc.now = fixedClock(f.now)
	return f
}

func (f *feedFixture) story(t *testing.T, author string, createdAt time.Time) *domain.Story {
	t.Helper()
	s, err := domain.NewStory(author, domain.Media{Key: author + ".jpg"}, createdAt)
	require.NoError(t, err)
	require.NoError(t, f.stories.Save(context.Background(), s))
	return s
}

func (f *feedFixture) follow(t *testing.T, actor, target string) {
	t.Helper()
	require.NoError(t, f.graph.CreateRelation(context.Background(), actor, target))
}

func TestComposeStoryFeedScenario(t *testing.T) {
	f := newFeedFixture(t)
	f.follow(t, "viewer", "alice")
	f.follow(t, "viewer", "bob")

	base := f.now.Add(-5 * time.Hour)
	f.story(t, "alice", base)
	newer := f.story(t, "alice", base.Add(time.Hour))
	f.story(t, "bob", f.now.Add(-25*time.Hour)) // expirée

	feed, err := f.svc.ComposeStoryFeed(context.Background(), domain.Viewer{UserID: "viewer"})
	require.NoError(t, err)

	require.Len(t, feed, 1)
	assert.Equal(t, newer.ID, feed[0].ID)
}

// La plus récente gagne, quel que soit l'ordre de lecture.
func TestComposeStoryFeedPicksLatestNotFirstSeen(t *testing.T) {
	f := newFeedFixture(t)
	f.follow(t, "viewer", "alice")

	latest := f.story(t, "alice", f.now.Add(-time.Hour))
	f.story(t, "alice", f.now.Add(-3*time.Hour)) // insérée après, plus ancienne

	feed, err := f.svc.ComposeStoryFeed(context.Background(), domain.Viewer{UserID: "viewer"})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, latest.ID, feed[0].ID)
}

func TestComposeStoryFeedOnlyFollowedAuthors(t *testing.T) {
	f := newFeedFixture(t)
	f.follow(t, "viewer", "alice")
	f.follow(t, "bob", "carol") // arête d'un autre utilisateur

	f.story(t, "alice", f.now.Add(-time.Hour))
	f.story(t, "carol", f.now.Add(-time.Hour))
	f.story(t, "viewer", f.now.Add(-time.Hour))

	feed, err := f.svc.ComposeStoryFeed(context.Background(), domain.Viewer{UserID: "viewer"})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "alice", feed[0].AuthorID)
}

func TestComposeStoryFeedOnePerAuthorNewestFirst(t *testing.T) {
	f := newFeedFixture(t)
	f.follow(t, "viewer", "alice")
	f.follow(t, "viewer", "bob")
	f.follow(t, "viewer", "carol")

	for i := 0; i < 3; i++ {
		f.story(t, "alice", f.now.Add(-time.Duration(10+i)*time.Hour))
		f.story(t, "bob", f.now.Add(-time.Duration(1+i)*time.Hour))
		f.story(t, "carol", f.now.Add(-time.Duration(5+i)*time.Hour))
	}

	feed, err := f.svc.ComposeStoryFeed(context.Background(), domain.Viewer{UserID: "viewer"})
	require.NoError(t, err)
	require.Len(t, feed, 3)

	seen := map[string]bool{}
	for _, s := range feed {
		assert.False(t, seen[s.AuthorID], "duplicate author %s", s.AuthorID)
		seen[s.AuthorID] = true
	}
	assert.Equal(t, []string{"bob", "carol", "alice"}, []string{feed[0].AuthorID, feed[1].AuthorID, feed[2].AuthorID})
}

func TestComposeStoryFeedExpiryBoundary(t *testing.T) {
	f := newFeedFixture(t)
	f.follow(t, "viewer", "alice")

	// expires_at == now : déjà invisible
	f.story(t, "alice", f.now.Add(-24*time.Hour))

	feed, err := f.svc.ComposeStoryFeed(context.Background(), domain.Viewer{UserID: "viewer"})
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestComposeStoryFeedAnonymousIsEmpty(t *testing.T) {
	f := newFeedFixture(t)
	f.follow(t, "viewer", "alice")
	f.story(t, "alice", f.now.Add(-time.Hour))

	feed, err := f.svc.ComposeStoryFeed(context.Background(), domain.Anonymous())
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestComposeStoryFeedUnknownViewer(t *testing.T) {
	f := newFeedFixture(t)

	_, err := f.svc.ComposeStoryFeed(context.Background(), domain.Viewer{UserID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func (f *feedFixture) post(t *testing.T, author, title string, publish time.Time, tags ...string) *domain.Post {
	t.Helper()
	p, err := domain.NewPost(author, title, "body", tags, nil, publish, f.now)
	require.NoError(t, err)
	require.NoError(t, f.posts.Save(context.Background(), p))
	return p
}

func TestComposePostFeedOrdersByPublishDesc(t *testing.T) {
	f := newFeedFixture(t)
	older := f.post(t, "alice", "older", f.now.Add(-time.Hour))
	newer := f.post(t, "bob", "newer", f.now)

	feed, err := f.svc.ComposePostFeed(context.Background(), domain.Anonymous(), domain.PostFilter{})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, newer.ID, feed[0].Post.ID)
	assert.Equal(t, older.ID, feed[1].Post.ID)
}

func TestComposePostFeedTiesKeepCreationOrder(t *testing.T) {
	f := newFeedFixture(t)
	publish := f.now.Add(-time.Hour)
	first := f.post(t, "alice", "first", publish)
	second := f.post(t, "bob", "second", publish)

	feed, err := f.svc.ComposePostFeed(context.Background(), domain.Anonymous(), domain.PostFilter{})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, first.ID, feed[0].Post.ID)
	assert.Equal(t, second.ID, feed[1].Post.ID)
}

func TestComposePostFeedFlags(t *testing.T) {
	f := newFeedFixture(t)
	p1 := f.post(t, "alice", "one", f.now)
	p2 := f.post(t, "bob", "two", f.now.Add(-time.Minute))

	ctx := context.Background()
	require.NoError(t, f.posts.AddLike(ctx, p1.ID, "viewer"))
	require.NoError(t, f.posts.AddSave(ctx, p2.ID, "viewer"))
	require.NoError(t, f.posts.AddLike(ctx, p2.ID, "carol"))

	feed, err := f.svc.ComposePostFeed(ctx, domain.Viewer{UserID: "viewer"}, domain.PostFilter{})
	require.NoError(t, err)
	require.Len(t, feed, 2)

	assert.True(t, feed[0].Liked)
	assert.False(t, feed[0].Saved)
	assert.False(t, feed[1].Liked)
	assert.True(t, feed[1].Saved)

	anon, err := f.svc.ComposePostFeed(ctx, domain.Anonymous(), domain.PostFilter{})
	require.NoError(t, err)
	for _, fp := range anon {
		assert.False(t, fp.Liked)
		assert.False(t, fp.Saved)
	}
}

func TestComposePostFeedTagFilter(t *testing.T) {
	f := newFeedFixture(t)
	tagged := f.post(t, "alice", "go post", f.now, "Golang")
	f.post(t, "bob", "other", f.now)

	feed, err := f.svc.ComposePostFeed(context.Background(), domain.Anonymous(), domain.PostFilter{Tag: "GoLang"})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, tagged.ID, feed[0].Post.ID)
}
