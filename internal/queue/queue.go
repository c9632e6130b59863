// Package queue wires RabbitMQ for catalog reindex jobs. The consumer runs
// inside the server process because the knowledge graph it rebuilds is
// process-local state.
package queue

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/shopgraph/backend/internal/util"
	"github.com/shopgraph/backend/pkg/logger"
)

const (
	ReindexQueue = "reindex_queue"

	retrySuffix = "_retry"
	dlqSuffix   = "_dlq"
)

// Init connects to RabbitMQ from the RABBITMQ_* environment. Returns nil
// when no host is configured; callers then fall back to synchronous
// reindexing.
func Init() *amqp091.Connection {
	host := util.GetEnv("RABBITMQ_HOST")
	if host == "" {
		return nil
	}

	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)
	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	return conn
}

// SetupQueues declares the reindex queue together with its retry and
// dead-letter companions. The retry queue bounces messages back after a
// short TTL.
func SetupQueues(ch *amqp091.Channel) error {
	for _, name := range []string{ReindexQueue} {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		_, err = ch.QueueDeclare(
			name+dlqSuffix,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name+dlqSuffix, err)
		}

		_, err = ch.QueueDeclare(
			name+retrySuffix,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name+retrySuffix, err)
		}
	}
	return nil
}

// Publish enqueues a persistent message on the named queue.
func Publish(ch *amqp091.Channel, queueName string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	if err := ch.Publish("", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}
	return nil
}
