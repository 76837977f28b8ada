package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

const (
	StreamName     = "BLOG"
	SubjectPattern = "blog.>" // Tous les events blog.*

	SubjectStoryCreated   = "blog.story.created"
	SubjectPostCreated    = "blog.post.created"
	SubjectPostLiked      = "blog.post.liked"
	SubjectUserFollowed   = "blog.user.followed"
	SubjectUserRegistered = "blog.user.registered"
)

// msgPublisher est la seule partie de jetstream.JetStream dont on a besoin
type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type NatsPublisher struct {
	js msgPublisher
}

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

// EnsureStream crée le Stream au démarrage (Idempotent)
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage, // Persistance sur disque
		Replicas: 1,                     // Mettre 3 en cluster
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// --- Payloads (contrat implicite avec les consommateurs) ---

type StoryCreatedEvent struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PostCreatedEvent struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"` // "post", "video", "image"
	Tags      []string  `json:"tags"`
	Publish   time.Time `json:"publish"`
	CreatedAt time.Time `json:"created_at"`
}

type PostLikedEvent struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

type UserFollowedEvent struct {
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
}

type UserRegisteredEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (p *NatsPublisher) PublishStoryCreated(ctx context.Context, story *domain.Story) error {
	return p.publish(ctx, SubjectStoryCreated, StoryCreatedEvent{
		ID:        story.ID,
		AuthorID:  story.AuthorID,
		ImageURL:  story.Image.URL,
		CreatedAt: story.CreatedAt,
		ExpiresAt: story.ExpiresAt,
	})
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	contentType := "post"
	if len(post.Media) > 0 {
		contentType = string(post.Media[0].Type) // type basé sur le 1er média
	}
	return p.publish(ctx, SubjectPostCreated, PostCreatedEvent{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Type:      contentType,
		Tags:      post.Tags,
		Publish:   post.Publish,
		CreatedAt: post.CreatedAt,
	})
}

func (p *NatsPublisher) PublishPostLiked(ctx context.Context, postID, userID string) error {
	return p.publish(ctx, SubjectPostLiked, PostLikedEvent{PostID: postID, UserID: userID})
}

func (p *NatsPublisher) PublishUserFollowed(ctx context.Context, actorID, targetID string) error {
	return p.publish(ctx, SubjectUserFollowed, UserFollowedEvent{ActorID: actorID, TargetID: targetID})
}

func (p *NatsPublisher) PublishUserRegistered(ctx context.Context, userID, email string) error {
	return p.publish(ctx, SubjectUserRegistered, UserRegisteredEvent{UserID: userID, Email: email})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Propagation du trace context dans les headers NATS
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	ack, err := p.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	slog.DebugContext(ctx, "📢 Event published", "subject", subject, "seq", ack.Sequence)
	return nil
}
