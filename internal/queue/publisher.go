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

// Publisher sends booking events to RabbitMQ.  The connection is dialed
// lazily and re-dialed after it drops; each publish uses its own
// channel.  Errors are logged and returned so callers may ignore them.
type Publisher struct {
    url string

    mu   sync.Mutex
    conn *amqp.Connection
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url}
}

// dialTimeout bounds the TCP connect and AMQP handshake.
const dialTimeout = 3 * time.Second

func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn != nil && !p.conn.IsClosed() {
        return p.conn, nil
    }
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    timeout := dialTimeout
    if dl, ok := ctx.Deadline(); ok {
        if left := time.Until(dl); left < timeout {
            timeout = left
        }
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Dial:      amqp.DefaultDial(timeout),
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
    })
    if err != nil {
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    p.conn = conn
    return conn, nil
}

// Publish declares the event's queue (durable, idempotent) and sends the
// event as a persistent JSON message routed by its Type.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
    conn, err := p.connection(ctx)
    if err != nil {
        log.Warnf("rabbitmq: %v", err)
        return err
    }
    ch, err := conn.Channel()
    if err != nil {
        log.Warnf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        ev.Type, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        log.Warnf("rabbitmq: queue declare %s failed: %v", ev.Type, err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ev.Type, false, false, pub); err != nil {
        log.Warnf("rabbitmq: publish %s failed: %v", ev.Type, err)
        return err
    }
    return nil
}

// Close closes the underlying connection, if any.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn == nil || p.conn.IsClosed() {
        return nil
    }
    return p.conn.Close()
}

// Discard is the publisher used when events are disabled.
type Discard struct{}

func (Discard) Publish(context.Context, BookingEvent) error { return nil }
