package eventbroker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

type capturePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (c *capturePublisher) PublishMsg(_ context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.msgs = append(c.msgs, msg)
	return &jetstream.PubAck{Stream: StreamName, Sequence: uint64(len(c.msgs))}, nil
}

func TestPublishStoryCreated(t *testing.T) {
	capture := &capturePublisher{}
	pub := &NatsPublisher{js: capture}

	now := time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC)
	story, err := domain.NewStory("alice", domain.Media{Key: "stories/a.jpg", URL: "https://cdn/a.jpg"}, now)
	require.NoError(t, err)

	require.NoError(t, pub.PublishStoryCreated(context.Background(), story))
	require.Len(t, capture.msgs, 1)
	assert.Equal(t, SubjectStoryCreated, capture.msgs[0].Subject)

	var ev StoryCreatedEvent
	require.NoError(t, json.Unmarshal(capture.msgs[0].Data, &ev))
	assert.Equal(t, story.ID, ev.ID)
	assert.Equal(t, "alice", ev.AuthorID)
	assert.True(t, ev.ExpiresAt.Equal(now.Add(24*time.Hour)))
}

func TestPublishPostCreatedUsesFirstMediaType(t *testing.T) {
	capture := &capturePublisher{}
	pub := &NatsPublisher{js: capture}

	post := &domain.Post{ID: "p1", AuthorID: "alice", Title: "t", Media: []domain.Media{{Key: "k", Type: domain.MediaTypeVideo}}}
	require.NoError(t, pub.PublishPostCreated(context.Background(), post))

	var ev PostCreatedEvent
	require.NoError(t, json.Unmarshal(capture.msgs[0].Data, &ev))
	assert.Equal(t, "video", ev.Type)
}

func TestPublishInjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	capture := &capturePublisher{}
	pub := &NatsPublisher{js: capture}
	require.NoError(t, pub.PublishUserFollowed(ctx, "a", "b"))

	assert.NotEmpty(t, capture.msgs[0].Header.Get("traceparent"))
	assert.Equal(t, SubjectUserFollowed, capture.msgs[0].Subject)
}

func TestPublishWrapsBrokerError(t *testing.T) {
	boom := errors.New("no responders")
	pub := &NatsPublisher{js: &capturePublisher{err: boom}}

	err := pub.PublishPostLiked(context.Background(), "p1", "u1")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), SubjectPostLiked)
}
