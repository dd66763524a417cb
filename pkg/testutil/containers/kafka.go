//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// KafkaContainer is a single-node Redpanda speaking the Kafka protocol.
type KafkaContainer struct {
	Container *redpanda.Container
	Broker    string
}

// NewKafkaContainer starts Redpanda and returns its seed broker address.
func NewKafkaContainer(t *testing.T) *KafkaContainer {
	t.Helper()
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.1.7")
	require.NoError(t, err, "start redpanda container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	broker, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err, "redpanda seed broker")

	return &KafkaContainer{Container: container, Broker: broker}
}
