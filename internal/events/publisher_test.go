package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-prep-service/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(AttemptSubmitted, "user-1", AttemptSubmittedData{AttemptID: 4, Score: 75})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, AttemptSubmitted, event.Type)
	assert.Equal(t, "exam-prep-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.Equal(t, "user-1", event.UserID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestMockEventPublisher(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEventPublisher(testLogger())

	require.NoError(t, mock.Publish(ctx, NewEvent(AttemptStarted, "u", nil)))
	require.NoError(t, mock.Publish(ctx, NewEvent(AchievementUnlocked, "u", nil)))

	assert.Len(t, mock.GetPublishedEvents(), 2)
	assert.Len(t, mock.EventsOfType(AchievementUnlocked), 1)

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())

	mock.FailWith(errors.New("broker down"))
	assert.Error(t, mock.Publish(ctx, NewEvent(AttemptStarted, "u", nil)))
	assert.Empty(t, mock.GetPublishedEvents())
}

func TestKafkaEventPublisher_MessageShape(t *testing.T) {
	logger := testLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NewSlogLogger(logger))
	defer pubSub.Close()

	publisher := newKafkaEventPublisher(pubSub, "exam-prep.events", logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "exam-prep.events")
	require.NoError(t, err)

	event := NewEvent(AttemptSubmitted, "user-9", AttemptSubmittedData{AttemptID: 12, Score: 100})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "attempt.submitted", msg.Metadata.Get("event_type"))
		assert.Equal(t, "user-9", msg.Metadata.Get("user_id"))

		var decoded Event
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, event.ID, decoded.ID)
		assert.Equal(t, AttemptSubmitted, decoded.Type)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}

func TestNewEventPublisher_None(t *testing.T) {
	publisher, err := NewEventPublisher(config.EventsConfig{Broker: config.BrokerNone}, testLogger())
	require.NoError(t, err)
	assert.NoError(t, publisher.Publish(context.Background(), NewEvent(AttemptStarted, "u", nil)))
	assert.NoError(t, publisher.Close())

	_, err = NewEventPublisher(config.EventsConfig{Broker: "nats"}, testLogger())
	assert.Error(t, err)
}
