package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// LogFileName is the file the worker appends events to, under its log dir.
const LogFileName = "booking.log"

// Consumer drains the booking queues into an append-only log file.
type Consumer struct {
    url    string
    logDir string
}

// NewConsumer returns a Consumer for the broker at url writing to logDir.
func NewConsumer(url, logDir string) *Consumer {
    return &Consumer{url: url, logDir: logDir}
}

// Run connects to RabbitMQ, declares every booking queue and consumes
// until ctx is cancelled.  Broken connections are re-dialed with an
// exponential backoff capped at 30s.  A message that cannot be handled
// is rejected without requeue so one bad payload cannot loop forever.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            log.Warnf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
                if backoff > 30*time.Second {
                    backoff = 30 * time.Second
                }
            }
            continue
        }
        backoff = time.Second
        log.Infof("booking-consumer: connected, consuming %v", Queues)

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warnf("booking-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
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

type delivery struct {
    queue string
    amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warnf("booking-consumer: set QoS failed: %v", err)
    }

    merged := make(chan delivery)
    done := make(chan struct{})
    defer close(done)
    closed := make(chan string, len(Queues))
    for _, q := range Queues {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        go func(q string, msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case merged <- delivery{queue: q, Delivery: d}:
                case <-done:
                    return
                }
            }
            closed <- q
        }(q, msgs)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case q := <-closed:
            return fmt.Errorf("deliveries channel for %s closed", q)
        case d := <-merged:
            if err := c.HandleMessage(d.queue, d.Body); err != nil {
                log.Errorf("booking-consumer: handle message from %s failed: %v", d.queue, err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends its log line.
func (c *Consumer) HandleMessage(queue string, body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.BookingID == 0 {
        return errors.New("event without booking_id")
    }
    if ev.Type == "" {
        ev.Type = queue
    }
    if err := os.MkdirAll(c.logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.logDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev BookingEvent) string {
    verb := "Booking confirmed"
    if ev.Type == QueueBookingCancelled {
        verb = "Booking cancelled"
    }
    return fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | resource_id=%d | resource=%q | window=%s..%s | price=%s | event_id=%s\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), verb, ev.BookingID, ev.UserID, ev.ResourceID, ev.ResourceName,
        ev.StartTime.UTC().Format(time.RFC3339), ev.EndTime.UTC().Format(time.RFC3339), ev.Price.StringFixed(2), ev.EventID)
}
