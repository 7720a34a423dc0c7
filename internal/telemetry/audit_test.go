package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-chat-service/internal/mocks"
	"social-chat-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.social_chat", "social-chat-service", "test")

	userID := int64(42)
	publisher.On("Publish", mock.Anything, "audit.social_chat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.EventType == "audit_log" &&
			envelope.Service == "social-chat-service" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == 42 &&
			envelope.Payload.Level == "INFO" &&
			envelope.Payload.Text == "user signed in"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "user signed in", "req-1", &userID)

	publisher.AssertExpectations(t)
}

func TestEmitOnNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "on a nil emitter", "req-2", nil)
	})
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.social_chat", "social-chat-service", "test")

	publisher.On("Publish", mock.Anything, "audit.social_chat", mock.Anything).
		Return(assert.AnError).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "ERROR", "broker is down", "req-3", nil)
	})
	publisher.AssertExpectations(t)
}
