package bus_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/illmade-knight/go-actuator-node/pkg/bus"
)

// setupPubsubTest creates an in-memory Pub/Sub environment with one topic
// and one subscription bound to it.
func setupPubsubTest(t *testing.T, projectID, topicID, subID string) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, projectID, option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, topicID)
	require.NoError(t, err)

	_, err = client.CreateSubscription(ctx, subID, pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	return client, srv
}

func TestGooglePubsubConsumer_ReceiveMessage(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, _ := setupPubsubTest(t, "test-project", "horn-topic", "horn-sub")

	consumer, err := bus.NewGooglePubsubConsumer(ctx, bus.LoadDefaultGooglePubsubConsumerConfig("horn-sub"), client, zerolog.Nop())
	require.NoError(t, err)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	t.Cleanup(consumerCancel)
	require.NoError(t, consumer.Start(consumerCtx))

	// Act
	result := client.Topic("horn-topic").Publish(ctx, &pubsub.Message{
		Data:       []byte("true"),
		Attributes: map[string]string{bus.AttrMarker: "targetValue"},
	})
	_, err = result.Get(ctx)
	require.NoError(t, err)

	// Assert
	select {
	case received := <-consumer.Messages():
		assert.Equal(t, []byte("true"), received.Payload)
		marker, ok := received.Marker()
		require.True(t, ok)
		assert.Equal(t, "targetValue", marker)
		received.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for message from consumer")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(stopCancel)
	require.NoError(t, consumer.Stop(stopCtx))
	select {
	case <-consumer.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() channel not closed after Stop()")
	}
}

func TestNewGooglePubsubConsumer_MissingSubscription(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, _ := setupPubsubTest(t, "test-project", "horn-topic", "horn-sub")

	_, err := bus.NewGooglePubsubConsumer(ctx, bus.LoadDefaultGooglePubsubConsumerConfig("no-such-sub"), client, zerolog.Nop())
	require.Error(t, err, "a missing subscription must be fatal to startup")
}

func TestGooglePubsubPublisher_Publish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, srv := setupPubsubTest(t, "test-project", "horn-topic", "horn-sub")

	publisher, err := bus.NewGooglePubsubPublisher(ctx, client, "horn-topic", zerolog.Nop())
	require.NoError(t, err)

	err = publisher.Publish(ctx, []byte("false"), map[string]string{
		bus.AttrMarker:   "currentValue",
		bus.AttrEncoding: "text/plain;charset=utf-8",
	})
	require.NoError(t, err)

	messages := srv.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, []byte("false"), messages[0].Data)
	assert.Equal(t, "currentValue", messages[0].Attributes[bus.AttrMarker])

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(stopCancel)
	require.NoError(t, publisher.Stop(stopCtx))
}

func TestNewGooglePubsubPublisher_MissingTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, _ := setupPubsubTest(t, "test-project", "horn-topic", "horn-sub")

	_, err := bus.NewGooglePubsubPublisher(ctx, client, "no-such-topic", zerolog.Nop())
	require.Error(t, err, "a missing topic must be fatal to startup")
}
