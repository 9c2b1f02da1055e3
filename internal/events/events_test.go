package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"portfolio-api/internal/logger"
	"portfolio-api/internal/metrics"
	"portfolio-api/testing/testnats"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct {
	calls  int
	closed bool
}

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error {
	f.closed = true
	return nil
}

func TestNotifier(t *testing.T) {
	t.Run("FailuresAreSwallowed", func(t *testing.T) {
		publisher := &failingPublisher{}
		notifier := NewNotifier(publisher, logger.Discard(), metrics.NewMock())

		assert.NotPanics(t, func() {
			notifier.Notify(context.Background(), BlogCreated, "id-1", "hello-world")
		})
		assert.Equal(t, 1, publisher.calls)

		require.NoError(t, notifier.Close())
		assert.True(t, publisher.closed)
	})

	t.Run("NilPublisherIsNoop", func(t *testing.T) {
		notifier := NewNotifier(nil, logger.Discard(), metrics.NewMock())
		notifier.Notify(context.Background(), ProjectDeleted, "id-2", "")
		assert.NoError(t, notifier.Close())
	})

	t.Run("NilNotifier", func(t *testing.T) {
		var notifier *Notifier
		notifier.Notify(context.Background(), BlogDeleted, "id-3", "")
		assert.NoError(t, notifier.Close())
	})
}

func TestKafkaPublisher(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("KeysByDocumentID", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			if msg.Topic != "portfolio-content" {
				return fmt.Errorf("unexpected topic %q", msg.Topic)
			}
			key, err := msg.Key.Encode()
			if err != nil {
				return err
			}
			if string(key) != "id-1" {
				return fmt.Errorf("unexpected key %q", key)
			}
			if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(BlogPublished) {
				return fmt.Errorf("unexpected headers %v", msg.Headers)
			}

			value, err := msg.Value.Encode()
			if err != nil {
				return err
			}
			var event Event
			if err := json.Unmarshal(value, &event); err != nil {
				return err
			}
			if event.Slug != "hello-world" || !event.At.Equal(at) {
				return fmt.Errorf("unexpected event %+v", event)
			}
			return nil
		})

		publisher := newKafkaPublisher(producer, "portfolio-content", logger.Discard())
		err := publisher.Publish(context.Background(), Event{Type: BlogPublished, ID: "id-1", Slug: "hello-world", At: at})
		require.NoError(t, err)
		require.NoError(t, publisher.Close())
	})

	t.Run("SendFailure", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		publisher := newKafkaPublisher(producer, "portfolio-content", logger.Discard())
		err := publisher.Publish(context.Background(), Event{Type: ProjectCreated, ID: "id-2", At: at})
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, publisher.Close())
	})
}

func TestNATSPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	nc := testnats.SetupSharedNATS(t)
	defer nc.Cleanup(t)

	messages := nc.Subscribe(t, "portfolio.content.>")

	publisher, err := NewNATSPublisher(nc.URL, "portfolio.content", logger.Discard())
	require.NoError(t, err)
	defer publisher.Close()

	require.NoError(t, publisher.HealthCheck())

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, publisher.Publish(context.Background(), Event{Type: BlogCreated, ID: "id-1", Slug: "hello-world", At: at}))

	select {
	case msg := <-messages:
		assert.Equal(t, "portfolio.content.blog.created", msg.Subject)

		var event Event
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, BlogCreated, event.Type)
		assert.Equal(t, "id-1", event.ID)
		assert.Equal(t, "hello-world", event.Slug)
		assert.True(t, event.At.Equal(at))
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
