package queue

import (
    "context"
    "net"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// silentBroker accepts TCP connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
    t.Helper()
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)

    var (
        mu    sync.Mutex
        conns []net.Conn
    )
    t.Cleanup(func() {
        _ = ln.Close()
        mu.Lock()
        defer mu.Unlock()
        for _, c := range conns {
            _ = c.Close()
        }
    })
    go func() {
        for {
            conn, err := ln.Accept()
            if err != nil {
                return
            }
            mu.Lock()
            conns = append(conns, conn)
            mu.Unlock()
        }
    }()
    return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublishDialHonoursDeadline(t *testing.T) {
    p := NewPublisher(silentBroker(t))
    defer p.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
    defer cancel()

    began := time.Now()
    err := p.Publish(ctx, NewBookingEvent(QueueBookingConfirmed, sampleBooking(), "Room A", began))
    require.Error(t, err)
    assert.Less(t, time.Since(began), 2*time.Second)
}

func TestPublishWithCancelledContext(t *testing.T) {
    p := NewPublisher(silentBroker(t))
    ctx, cancel := context.WithCancel(context.Background())
    cancel()

    err := p.Publish(ctx, NewBookingEvent(QueueBookingCancelled, sampleBooking(), "Room A", time.Now()))
    assert.ErrorIs(t, err, context.Canceled)
}
