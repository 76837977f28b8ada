package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

type memoryStories struct {
	mu   sync.Mutex
	byID map[string]*domain.Story
}

func (m *memoryStories) Save(_ context.Context, s *domain.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	return nil
}

func (m *memoryStories) ListActiveByAuthors(context.Context, []string, time.Time) ([]*domain.Story, error) {
	return nil, nil
}

func (m *memoryStories) ListExpiredBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Story
	for _, s := range m.byID {
		if s.ExpiresAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStories) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.byID[id]; ok {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type memoryStorage struct {
	deleted []string
	err     error
}

func (m *memoryStorage) Put(context.Context, string, *domain.Upload) (domain.Media, error) {
	return domain.Media{}, nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPurgerFixture(t *testing.T, now time.Time, retention time.Duration) (*StoryPurger, *memoryStories, *memoryStorage) {
	t.Helper()
	stories := &memoryStories{byID: map[string]*domain.Story{}}
	storage := &memoryStorage{}
	p := NewStoryPurger(context.Background(), stories, storage, "", retention, discardLogger())
	p.now = func() time.Time { return now }
	return p, stories, storage
}

func addStory(t *testing.T, repo *memoryStories, author string, createdAt time.Time) *domain.Story {
	t.Helper()
	s, err := domain.NewStory(author, domain.Media{Key: "stories/" + author + createdAt.Format("150405") + ".jpg"}, createdAt)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func TestRunOnceDeletesOnlyPastRetention(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	p, repo, storage := newPurgerFixture(t, now, 24*time.Hour)

	old := addStory(t, repo, "alice", now.Add(-72*time.Hour))  // expirée depuis 48h
	recent := addStory(t, repo, "bob", now.Add(-30*time.Hour)) // expirée depuis 6h
	active := addStory(t, repo, "carol", now.Add(-time.Hour))  // active

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NotContains(t, repo.byID, old.ID)
	assert.Contains(t, repo.byID, recent.ID)
	assert.Contains(t, repo.byID, active.ID)
	assert.Equal(t, []string{old.Image.Key}, storage.deleted)
}

func TestRunOnceNeverTouchesActiveStories(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	// Rétention négative : le cutoff est ramené à now
	p, repo, _ := newPurgerFixture(t, now, -48*time.Hour)

	expired := addStory(t, repo, "alice", now.Add(-25*time.Hour))
	active := addStory(t, repo, "bob", now.Add(-23*time.Hour))

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, repo.byID, expired.ID)
	assert.Contains(t, repo.byID, active.ID)
}

func TestRunOnceBatches(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	p, repo, _ := newPurgerFixture(t, now, 0)

	for i := 0; i < purgeBatchSize+3; i++ {
		s, err := domain.NewStory("alice", domain.Media{Key: "k"}, now.Add(-48*time.Hour-time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), s))
	}

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(purgeBatchSize+3), n)
	assert.Empty(t, repo.byID)
}

func TestRunOnceToleratesStorageErrors(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	p, repo, storage := newPurgerFixture(t, now, 0)
	storage.err = errors.New("s3 down")

	addStory(t, repo, "alice", now.Add(-48*time.Hour))

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, repo.byID)
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	stories := &memoryStories{byID: map[string]*domain.Story{}}
	p := NewStoryPurger(context.Background(), stories, &memoryStorage{}, "not a cron", time.Hour, discardLogger())
	assert.Error(t, p.Start())

	ok := NewStoryPurger(context.Background(), stories, &memoryStorage{}, "*/5 * * * *", time.Hour, discardLogger())
	require.NoError(t, ok.Start())
	ok.Stop()
}
