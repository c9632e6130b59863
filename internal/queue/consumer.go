package queue

import (
	"context"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

const maxDeliveryRetries = 10

// StartConsumer consumes reindex jobs one at a time until the context is
// cancelled. Prefetch is 1 so a long rebuild never piles up deliveries.
func StartConsumer(
	ctx context.Context,
	conn *amqp.Connection,
	s3Client *awss3.Client,
	graph *knowledge.Graph,
	store vectorstore.Store,
) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return err
	}

	msgs, err := ch.Consume(
		ReindexQueue,
		ReindexQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		return err
	}

	go func() {
		defer ch.Close()
		logger.Info("Listening for reindex jobs")
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping reindex consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Reindex delivery channel closed")
					return
				}

				if err := ProcessReindexMessage(ctx, s3Client, graph, store, msg.Body); err != nil {
					logger.Error("Error processing reindex job", "err", err)
					handleProcessingError(ch, msg, ReindexQueue)
					continue
				}

				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack reindex job", "err", err)
					continue
				}
				logger.Info("Reindex job processed")
			}
		}
	}()
	return nil
}

// handleProcessingError routes a failed delivery to the retry queue, or to
// the dead-letter queue once the retry budget is spent.
func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= maxDeliveryRetries {
		dlqName := queueName + dlqSuffix
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: msg.ContentType,
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	retryName := queueName + retrySuffix
	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
