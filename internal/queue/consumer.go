package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartVisitConsumer connects to RabbitMQ, declares the visit.completed
// queue (durable), and starts consuming.  Each message is appended to
// logs/visits.log in a single-line, human-friendly format.  The function
// runs a reconnect loop with backoff and keeps the server operating through
// broker outages; processing errors reject the offending message without
// requeue to avoid tight loops.
func StartVisitConsumer(url string) error {
	if url == "" {
		return errors.New("rabbitmq url not configured")
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("visit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("visit-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("visit-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(visitQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(visitQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("visit-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev VisitCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "visits.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	products := ""
	for i, p := range ev.Products {
		if i > 0 {
			products += ","
		}
		products += fmt.Sprintf("%s x%.1f", p.Name, p.Quantity)
	}
	line := fmt.Sprintf("[%s] Visit completed | visit_id=%d | client=%q | pool=%q | products=[%s]\n",
		ev.CompletedAt, ev.VisitID, ev.ClientName, ev.PoolLabel, products)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
