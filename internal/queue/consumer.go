package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/happycoon/coffee-table-reservation/internal/config"
)

// StartConsumer connects to RabbitMQ, declares the booking queue and
// appends every event as one JSON line to cfg.AuditLogPath.  It reconnects
// with exponential backoff and returns only when ctx is cancelled.
// Malformed messages are rejected without requeue so the loop keeps going.
func StartConsumer(ctx context.Context, cfg config.QueueConfig, log zerolog.Logger) error {
    if err := os.MkdirAll(filepath.Dir(cfg.AuditLogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir audit log dir: %w", err)
    }
    f, err := os.OpenFile(cfg.AuditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit log: %w", err)
    }
    defer f.Close()
    audit := NewAuditLogger(f)

    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("booking-consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, cfg.Queue, audit, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("booking-consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, audit zerolog.Logger, log zerolog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn().Err(err).Msg("booking-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(d.Body, audit); err != nil {
                log.Error().Err(err).Msg("booking-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// NewAuditLogger returns the zerolog logger the consumer writes events to.
func NewAuditLogger(w io.Writer) zerolog.Logger {
    return zerolog.New(w).With().Timestamp().Logger()
}

// HandleMessage decodes one event and writes it to the audit log.
func HandleMessage(body []byte, audit zerolog.Logger) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    e := audit.Info().
        Str("event", ev.Type).
        Uint64("table_id", ev.TableID).
        Str("occurred_at", ev.OccurredAt)
    if ev.BookingID != 0 {
        e = e.Uint64("booking_id", ev.BookingID).
            Uint64("user_id", ev.UserID).
            Str("start_time", ev.StartTime).
            Str("end_time", ev.EndTime)
    }
    if ev.TableType != "" {
        e = e.Str("table_type", ev.TableType)
    }
    if ev.ActorID != 0 {
        e = e.Uint64("actor_id", ev.ActorID)
    }
    if ev.Type == EventTableDeleted {
        e = e.Int64("removed_bookings", ev.Removed)
    }
    e.Msg("booking event")
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
