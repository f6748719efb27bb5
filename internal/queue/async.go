package queue

import (
    "context"
    "errors"
    "time"

    "github.com/labstack/gommon/log"
)

// Sink is anything that can deliver a booking event.
type Sink interface {
    Publish(ctx context.Context, ev BookingEvent) error
}

// ErrBufferFull is returned by Async.Publish when the buffer is full and
// the event was dropped.
var ErrBufferFull = errors.New("event buffer full")

// Async decouples request handlers from the broker.  Publish only enqueues;
// Run delivers events one at a time, each bounded by timeout.
type Async struct {
    next    Sink
    events  chan BookingEvent
    timeout time.Duration
    log     *log.Logger
}

func NewAsync(next Sink, size int, timeout time.Duration, logger *log.Logger) *Async {
    if size < 1 {
        size = 1
    }
    return &Async{next: next, events: make(chan BookingEvent, size), timeout: timeout, log: logger}
}

// Publish enqueues ev without blocking.
func (a *Async) Publish(_ context.Context, ev BookingEvent) error {
    select {
    case a.events <- ev:
        return nil
    default:
        return ErrBufferFull
    }
}

// Run delivers queued events until ctx is done, then makes one pass over
// whatever is still buffered.
func (a *Async) Run(ctx context.Context) {
    for {
        select {
        case ev := <-a.events:
            a.deliver(ev)
        case <-ctx.Done():
            for {
                select {
                case ev := <-a.events:
                    a.deliver(ev)
                default:
                    return
                }
            }
        }
    }
}

func (a *Async) deliver(ev BookingEvent) {
    ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
    defer cancel()
    if err := a.next.Publish(ctx, ev); err != nil {
        a.log.Warnf("rabbitmq: deliver %s for booking %s: %v", ev.Type, ev.BookingID, err)
    }
}
