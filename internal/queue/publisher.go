package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const visitQueueName = "visit.completed"

// PublishVisitCompleted publishes a VisitCompletedEvent to the
// "visit.completed" queue.  Any error is logged and returned so the caller
// can ignore it without interrupting the request flow; the visit itself is
// already saved by the time this runs.  Messages are marked persistent.
func PublishVisitCompleted(ctx context.Context, url string, event VisitCompletedEvent) error {
	if url == "" {
		return nil // broker not configured; feature disabled
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(visitQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", visitQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
