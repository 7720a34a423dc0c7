package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-chat-service/internal/telemetry"
)

func TestNewPublisherFallsBackToNoop(t *testing.T) {
	publisher := NewPublisher("", "events")

	assert.Equal(t, "noop", PublisherMode(publisher))
}

func TestNoopPublishIsSafe(t *testing.T) {
	publisher := NewPublisher("", "events")

	err := publisher.Publish(context.Background(), "audit.social_chat", telemetry.AuditEnvelope{
		EventType: "audit_log",
		Service:   "social-chat-service",
		RequestID: "req-1",
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}
