//go:build integration

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestAMQPPublisherRoutesByEventType(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)
	url := fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())

	var pub *AMQPPublisher
	require.Eventually(t, func() bool {
		pub, err = NewAMQPPublisher(url, "equipmarket.test")
		return err == nil
	}, 60*time.Second, time.Second)
	defer pub.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "stock.*", "equipmarket.test", false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, Event{Type: TypeAdded, EquipmentID: 1}))
	require.NoError(t, pub.Publish(ctx, Event{Type: TypeDepleted, EquipmentID: 2, Quantity: 0}))

	select {
	case d := <-msgs:
		var e Event
		require.NoError(t, json.Unmarshal(d.Body, &e))
		assert.Equal(t, TypeDepleted, e.Type)
		assert.Equal(t, "stock.depleted", d.RoutingKey)
	case <-time.After(10 * time.Second):
		t.Fatal("no message received")
	}
	assert.True(t, pub.IsHealthy())
}
