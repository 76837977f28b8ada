package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/telemetry"
)

// GraphCache décore un GraphRepository : la liste des abonnements est lue
// à chaque composition de feed, on la garde dans Redis.
//
// Chaque liste est rangée sous une clé versionnée (graph:following:<id>:<gen>).
// Une écriture incrémente la génération : un remplissage lancé avant
// l'écriture atterrit sur l'ancienne version, que plus personne ne lit.
type GraphCache struct {
	next   ports.GraphRepository
	client *redis.Client
	ttl    time.Duration
}

func NewGraphCache(next ports.GraphRepository, client *redis.Client, ttl time.Duration) *GraphCache {
	return &GraphCache{next: next, client: client, ttl: ttl}
}

const (
	kindFollowing = "following"
	kindFollowers = "followers"
)

func genKey(kind, userID string) string { return fmt.Sprintf("graph:gen:%s:%s", kind, userID) }

func dataKey(kind, userID string, gen int64) string {
	return fmt.Sprintf("graph:%s:%s:%d", kind, userID, gen)
}

func (c *GraphCache) EnsureSchema(ctx context.Context) error {
	return c.next.EnsureSchema(ctx)
}

func (c *GraphCache) CreateRelation(ctx context.Context, actorID, targetID string) error {
	if err := c.next.CreateRelation(ctx, actorID, targetID); err != nil {
		return err
	}
	return c.invalidate(ctx, actorID, targetID)
}

func (c *GraphCache) DeleteRelation(ctx context.Context, actorID, targetID string) error {
	if err := c.next.DeleteRelation(ctx, actorID, targetID); err != nil {
		return err
	}
	return c.invalidate(ctx, actorID, targetID)
}

func (c *GraphCache) GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	return c.next.GetRelationStatus(ctx, actorID, targetID)
}

func (c *GraphCache) ListFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return c.cached(ctx, kindFollowing, userID, func() ([]string, error) {
		return c.next.ListFollowingIDs(ctx, userID)
	})
}

func (c *GraphCache) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return c.cached(ctx, kindFollowers, userID, func() ([]string, error) {
		return c.next.ListFollowerIDs(ctx, userID)
	})
}

// cached : Redis indisponible = on tombe sur la source, jamais d'erreur côté lecture.
// La génération est lue AVANT la source : une écriture concurrente la fait avancer
// et le remplissage éventuellement périmé reste sur l'ancienne clé.
func (c *GraphCache) cached(ctx context.Context, kind, userID string, load func() ([]string, error)) ([]string, error) {
	gen, err := c.client.Get(ctx, genKey(kind, userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		telemetry.FollowCacheLookups.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "Follow cache read failed", "kind", kind, "user_id", userID, "error", err)
		return load()
	}
	key := dataKey(kind, userID, gen)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		telemetry.FollowCacheLookups.WithLabelValues("hit").Inc()
		return decodeIDs(val), nil
	case errors.Is(err, redis.Nil):
		telemetry.FollowCacheLookups.WithLabelValues("miss").Inc()
	default:
		telemetry.FollowCacheLookups.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "Follow cache read failed", "key", key, "error", err)
		return load()
	}

	ids, err := load()
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, encodeIDs(ids), c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Follow cache write failed", "key", key, "error", err)
	}
	return ids, nil
}

// invalidate avance les générations des deux sens. En cas d'échec l'erreur
// remonte : le cache pourrait sinon servir un abonnement supprimé.
func (c *GraphCache) invalidate(ctx context.Context, actorID, targetID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(kindFollowing, actorID))
		pipe.Incr(ctx, genKey(kindFollowers, targetID))
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Follow cache invalidation failed", "actor_id", actorID, "target_id", targetID, "error", err)
		return fmt.Errorf("invalidate follow cache: %w", err)
	}
	return nil
}

// Les IDs sont des UUID : la virgule ne peut pas y apparaître
func encodeIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func decodeIDs(val string) []string {
	if val == "" {
		return []string{}
	}
	return strings.Split(val, ",")
}
