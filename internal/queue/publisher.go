package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends booking events to a durable queue through the default
// exchange.  The connection is opened lazily and re-dialled after a failure.
type Publisher struct {
    url   string
    queue string
    log   *log.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(url, queue string, logger *log.Logger) *Publisher {
    return &Publisher{url: url, queue: queue, log: logger}
}

// maxDialTimeout caps the TCP connect plus AMQP handshake.  amqp.Dial
// alone ignores the caller's context and waits up to 30s.
const maxDialTimeout = 5 * time.Second

// dialTimeout is the smaller of maxDialTimeout and the time left on ctx.
func dialTimeout(ctx context.Context) (time.Duration, error) {
    timeout := maxDialTimeout
    if dl, ok := ctx.Deadline(); ok {
        left := time.Until(dl)
        if left <= 0 {
            return 0, context.DeadlineExceeded
        }
        if left < timeout {
            timeout = left
        }
    }
    return timeout, ctx.Err()
}

func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    if p.conn == nil || p.conn.IsClosed() {
        timeout, err := dialTimeout(ctx)
        if err != nil {
            return nil, fmt.Errorf("dial: %w", err)
        }
        conn, err := amqp.DialConfig(p.url, amqp.Config{
            Heartbeat: 10 * time.Second,
            Locale:    "en_US",
            Dial:      amqp.DefaultDial(timeout),
        })
        if err != nil {
            return nil, fmt.Errorf("dial: %w", err)
        }
        p.conn = conn
    }
    ch, err := p.conn.Channel()
    if err != nil {
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.ch = ch
    return ch, nil
}

// Publish sends ev as a persistent JSON message.  Errors are logged and
// returned; callers treat publishing as best effort.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel(ctx)
    if err != nil {
        p.log.Warnf("rabbitmq: %v", err)
        return err
    }
    err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        MessageId:    ev.BookingID + ":" + ev.Type,
        Body:         body,
    })
    if err != nil {
        p.log.Warnf("rabbitmq: publish %s failed: %v", ev.Type, err)
        _ = ch.Close()
        p.ch = nil
        return err
    }
    return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        err := p.conn.Close()
        p.conn = nil
        return err
    }
    return nil
}

// Discard drops every event.  It stands in for Publisher when RabbitMQ is
// not configured.
type Discard struct{}

func (Discard) Publish(context.Context, BookingEvent) error { return nil }
