package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/telemetry"
)

const (
	DefaultPurgeSpec = "0 * * * *"
	purgeBatchSize   = 500
	purgeTimeout     = 10 * time.Minute
)

// StoryPurger récupère l'espace des stories expirées (lignes + images).
// Le feed filtre déjà sur expires_at : ce job n'est qu'une optimisation.
type StoryPurger struct {
	ctx       context.Context
	cron      *cron.Cron
	stories   ports.StoryRepository
	storage   ports.MediaStorage
	spec      string
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewStoryPurger(ctx context.Context, stories ports.StoryRepository, storage ports.MediaStorage, spec string, retention time.Duration, log *slog.Logger) *StoryPurger {
	if spec == "" {
		spec = DefaultPurgeSpec
	}
	return &StoryPurger{
		ctx:       ctx,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		stories:   stories,
		storage:   storage,
		spec:      spec,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

func (p *StoryPurger) Start() error {
	if _, err := p.cron.AddFunc(p.spec, p.run); err != nil {
		return fmt.Errorf("invalid purge spec %q: %w", p.spec, err)
	}
	p.cron.Start()
	p.log.Info("🧹 Story purger scheduled", "spec", p.spec, "retention", p.retention)
	return nil
}

// Stop attend la fin d'un passage en cours
func (p *StoryPurger) Stop() {
	<-p.cron.Stop().Done()
}

func (p *StoryPurger) run() {
	ctx, cancel := context.WithTimeout(p.ctx, purgeTimeout)
	defer cancel()

	if _, err := p.RunOnce(ctx); err != nil {
		p.log.ErrorContext(ctx, "Story purge failed", "error", err)
	}
}

// RunOnce supprime par lots tout ce qui a expiré avant now - retention.
// Une story encore active n'est jamais touchée, quelle que soit la rétention.
func (p *StoryPurger) RunOnce(ctx context.Context) (int64, error) {
	now := p.now().UTC()
	cutoff := now.Add(-p.retention)
	if cutoff.After(now) {
		cutoff = now
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		expired, err := p.stories.ListExpiredBefore(ctx, cutoff, purgeBatchSize)
		if err != nil {
			telemetry.StoriesPurged.WithLabelValues("error").Inc()
			return total, fmt.Errorf("list expired stories: %w", err)
		}
		if len(expired) == 0 {
			break
		}

		ids := make([]string, 0, len(expired))
		for _, s := range expired {
			// Image orpheline tolérée : la ligne part quand même
			if err := p.storage.Delete(ctx, s.Image.Key); err != nil {
				p.log.WarnContext(ctx, "Failed to delete story image", "story_id", s.ID, "key", s.Image.Key, "error", err)
			}
			ids = append(ids, s.ID)
		}

		n, err := p.stories.DeleteByIDs(ctx, ids)
		if err != nil {
			telemetry.StoriesPurged.WithLabelValues("error").Inc()
			return total, fmt.Errorf("delete expired stories: %w", err)
		}
		total += n
		telemetry.StoriesPurged.WithLabelValues("ok").Add(float64(n))

		if len(expired) < purgeBatchSize {
			break
		}
	}

	if total > 0 {
		p.log.InfoContext(ctx, "🧹 Expired stories purged", "count", total, "cutoff", cutoff)
	}
	return total, nil
}
