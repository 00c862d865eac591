package testutil

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.6.1"

// KafkaContainer is a single-node broker.
type KafkaContainer struct {
	*kafka.KafkaContainer
	Brokers []string
}

// NewKafkaContainer fails the test if the broker cannot be started.
func NewKafkaContainer(ctx context.Context, t *testing.T) *KafkaContainer {
	t.Helper()

	c, err := kafka.Run(ctx, kafkaImage, kafka.WithClusterID("riskd-it"))
	if err != nil {
		t.Fatalf("starting kafka: %v", err)
	}
	terminateOnCleanup(t, "kafka", c)

	brokers, err := c.Brokers(ctx)
	if err != nil {
		t.Fatalf("resolving kafka brokers: %v", err)
	}
	return &KafkaContainer{KafkaContainer: c, Brokers: brokers}
}
