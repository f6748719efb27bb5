package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/summit-hub/booking-api/internal/notify"
)

// Handler processes one decoded event.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, ev BookingEvent) error

// Consume connects to RabbitMQ, declares the queue and feeds every delivery
// to h until ctx is cancelled.  Lost connections are re-dialled with
// exponential backoff capped at 30 seconds.
func Consume(ctx context.Context, url, queue string, h Handler, logger *log.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            logger.Warnf("booking-consumer: dial failed: %v; retrying in %s", err, backoff)
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, queue, h, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warnf("booking-consumer: consume loop ended: %v; reconnecting", err)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, h Handler, logger *log.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warnf("booking-consumer: set QoS failed: %v", err)
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
            if err := Dispatch(ctx, d.Body, h); err != nil {
                logger.Errorf("booking-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Dispatch decodes body and passes it to h.
func Dispatch(ctx context.Context, body []byte, h Handler) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return h(ctx, ev)
}

// ActivityLog appends one line per event to a file.
type ActivityLog struct {
    mu sync.Mutex
    w  io.Writer
}

// OpenActivityLog opens path for appending, creating parent directories.
func OpenActivityLog(path string) (*ActivityLog, io.Closer, error) {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return nil, nil, fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return nil, nil, fmt.Errorf("open log file: %w", err)
    }
    return NewActivityLog(f), f, nil
}

func NewActivityLog(w io.Writer) *ActivityLog { return &ActivityLog{w: w} }

// Write records ev.
func (a *ActivityLog) Write(ev BookingEvent) error {
    seat := "-"
    if ev.SeatNumber != nil {
        seat = fmt.Sprint(*ev.SeatNumber)
    }
    line := fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%s | email=%s | station=%d | seat=%s | date=%s | time=%s-%s",
        ev.OccurredAt, ev.Type, ev.BookingID, ev.UserID, ev.UserEmail, ev.StationNumber, seat, ev.Date, ev.StartTime, ev.EndTime)
    if ev.Reason != "" {
        line += fmt.Sprintf(" | reason=%q", ev.Reason)
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    if _, err := io.WriteString(a.w, line+"\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// NotifyingHandler logs every event and e-mails the trader about it.  A
// failed e-mail is logged and the message still acknowledged since the
// booking itself is already committed.
func NotifyingHandler(activity *ActivityLog, n notify.Notifier, logger *log.Logger) Handler {
    return func(ctx context.Context, ev BookingEvent) error {
        if err := activity.Write(ev); err != nil {
            return err
        }
        if ev.UserEmail == "" {
            return nil
        }
        var m notify.Message
        switch ev.Type {
        case BookingCreated:
            m = notify.ConfirmationMessage(ev.View())
        case BookingCancelled:
            m = notify.CancellationMessage(ev.View(), ev.Reason)
        default:
            return nil
        }
        if err := n.Send(ctx, m); err != nil {
            logger.Errorf("booking-consumer: email %s to %s failed: %v", ev.Type, ev.UserEmail, err)
        }
        return nil
    }
}
