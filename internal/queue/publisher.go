package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers events to downstream consumers.  Implementations must
// be safe for concurrent use.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.  It is used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// AMQPPublisher publishes events to a durable RabbitMQ queue through the
// default exchange.  It dials per message; booking traffic is low and this
// keeps the publisher free of connection state.
type AMQPPublisher struct {
    URL   string
    Queue string
}

// NewAMQPPublisher returns a publisher for the given broker and queue.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Queue: queue}
}

// Publish declares the queue (idempotent) and sends ev as a persistent JSON
// message.  OccurredAt is filled in when empty.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
    if ev.OccurredAt == "" {
        ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return err
    }

    return ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Type:         ev.Type,
            Body:         body,
        },
    )
}
