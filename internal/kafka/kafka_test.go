package kafka_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"museum-visits/internal/kafka"
	"museum-visits/internal/logger"
	"museum-visits/internal/models"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...segkafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

// chanReader feeds queued messages and then blocks until cancelled
type chanReader struct {
	msgs chan segkafka.Message
}

func (r *chanReader) ReadMessage(ctx context.Context) (segkafka.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return segkafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error { return nil }

func testLogger() *logger.Logger {
	return logger.NewLoggerWithWriter(&bytes.Buffer{})
}

func TestPublishVisitChange(t *testing.T) {
	writer := new(MockWriter)
	producer := &kafka.Producer{Writer: writer, Topic: "museum.visits.changed", Logger: testLogger()}
	event := models.VisitChangeEvent{Action: models.VisitActionCreated, VisitID: 42, Date: "2024-07-15", At: "2024-07-20T14:00:00Z"}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []segkafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "42" {
			return false
		}
		var got models.VisitChangeEvent
		return json.Unmarshal(msgs[0].Value, &got) == nil && got == event
	})).Return(nil)

	require.NoError(t, producer.PublishVisitChange(context.Background(), event))
	writer.AssertExpectations(t)
}

func TestPublishVisitChangeError(t *testing.T) {
	writer := new(MockWriter)
	producer := &kafka.Producer{Writer: writer, Topic: "museum.visits.changed", Logger: testLogger()}

	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := producer.PublishVisitChange(context.Background(), models.VisitChangeEvent{VisitID: 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestConsumerDeliversEventsAndSkipsGarbage(t *testing.T) {
	reader := &chanReader{msgs: make(chan segkafka.Message, 3)}
	event := models.VisitChangeEvent{Action: models.VisitActionDeleted, VisitID: 7, Date: "2024-07-15"}
	value, err := json.Marshal(event)
	require.NoError(t, err)

	reader.msgs <- segkafka.Message{Value: []byte("not json")}
	reader.msgs <- segkafka.Message{Value: value}

	consumer := kafka.NewConsumerWithReader(reader, "museum.visits.changed", testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var received []models.VisitChangeEvent
	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx, func(_ context.Context, e models.VisitChangeEvent) error {
			mu.Lock()
			received = append(received, e)
			mu.Unlock()
			cancel()
			return nil
		})
	}()

	require.NoError(t, <-done)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.VisitChangeEvent{event}, received)
}

func TestConsumerStopsOnCancel(t *testing.T) {
	consumer := kafka.NewConsumerWithReader(&chanReader{msgs: make(chan segkafka.Message)}, "t", testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := consumer.Start(ctx, func(context.Context, models.VisitChangeEvent) error { return nil })
	assert.NoError(t, err)
}

func TestPublishVisitChangeStampsSource(t *testing.T) {
	writer := new(MockWriter)
	producer := &kafka.Producer{Writer: writer, Topic: "museum.visits.changed", Source: "instance-a", Logger: testLogger()}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []segkafka.Message) bool {
		var got models.VisitChangeEvent
		return len(msgs) == 1 && json.Unmarshal(msgs[0].Value, &got) == nil && got.Source == "instance-a"
	})).Return(nil)

	require.NoError(t, producer.PublishVisitChange(context.Background(), models.VisitChangeEvent{VisitID: 3}))
	writer.AssertExpectations(t)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestInvalidateForeignChanges(t *testing.T) {
	ctx := context.Background()
	cache := new(MockInvalidator)
	cache.On("Invalidate", ctx).Return(nil).Twice()
	handle := kafka.InvalidateForeignChanges("instance-a", cache, testLogger())

	require.NoError(t, handle(ctx, models.VisitChangeEvent{VisitID: 1, Source: "instance-a"}))
	cache.AssertNotCalled(t, "Invalidate", mock.Anything)

	require.NoError(t, handle(ctx, models.VisitChangeEvent{VisitID: 2, Source: "instance-b"}))
	require.NoError(t, handle(ctx, models.VisitChangeEvent{VisitID: 3}))
	cache.AssertNumberOfCalls(t, "Invalidate", 2)
}

func TestInvalidateForeignChangesError(t *testing.T) {
	ctx := context.Background()
	cache := new(MockInvalidator)
	cache.On("Invalidate", ctx).Return(errors.New("redis down"))
	handle := kafka.InvalidateForeignChanges("instance-a", cache, testLogger())

	err := handle(ctx, models.VisitChangeEvent{VisitID: 2, Source: "instance-b"})
	assert.ErrorContains(t, err, "redis down")
}
