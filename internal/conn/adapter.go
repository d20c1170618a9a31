// internal/conn/adapter.go
package conn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/bombparty/internal/protocol"
	"github.com/sirupsen/logrus"
)

// EventKind tells what an Event carries.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a link status change or one decoded server notification.
type Event struct {
	Kind    EventKind
	Message protocol.Inbound // set for EventMessage
	Err     error            // set for EventDisconnected when the link failed
}

const (
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
	defaultBufferSize   = 64
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithWriteTimeout bounds every write and ping.
func WithWriteTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often the write pump pings the server.
func WithPingInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.pingInterval = d
		}
	}
}

// WithBufferSize sets the capacity of the inbound event and outbound queues.
func WithBufferSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.bufferSize = n
		}
	}
}

// Adapter owns the single websocket link to the game server. It dials once
// and never retries.
type Adapter struct {
	url    string
	logger *logrus.Logger

	writeTimeout time.Duration
	pingInterval time.Duration
	bufferSize   int

	connected atomic.Bool
	events    chan Event
	outbound  chan outboundFrame
}

type outboundFrame struct {
	kind protocol.Type
	data []byte
}

// New builds an adapter for url. Nothing happens until Run is called.
func New(url string, logger *logrus.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		url:          url,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
		bufferSize:   defaultBufferSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.events = make(chan Event, a.bufferSize)
	a.outbound = make(chan outboundFrame, a.bufferSize)
	return a
}

// URL returns the server address the adapter dials.
func (a *Adapter) URL() string {
	return a.url
}

// Events returns the stream of status changes and inbound messages, in
// arrival order. It is closed when Run returns.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Connected reports whether the link is currently up.
func (a *Adapter) Connected() bool {
	return a.connected.Load()
}

// Send encodes msg and queues it for the write pump. Messages are dropped
// when the link is down or the queue is full.
func (a *Adapter) Send(msg protocol.Outbound) {
	kind := string(msg.Kind())
	if !a.connected.Load() {
		logDropped(a.logger, kind, "not connected")
		return
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		a.logger.Warnf("conn: failed to encode %s: %v", kind, err)
		return
	}
	select {
	case a.outbound <- outboundFrame{kind: msg.Kind(), data: data}:
	default:
		logDropped(a.logger, kind, "queue full")
	}
}

// Run dials the server and pumps frames until the link or ctx ends. It emits
// EventConnected after the handshake and EventDisconnected when done, then
// closes the event stream. The returned error is nil for a normal close.
func (a *Adapter) Run(ctx context.Context) error {
	defer close(a.events)

	c, _, err := websocket.Dial(ctx, a.url, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", a.url, err)
		a.logger.Warnf("conn: %v", err)
		a.emitFinal(ctx, Event{Kind: EventDisconnected, Err: err})
		return err
	}

	a.connected.Store(true)
	logConnect(a.logger, a.url)
	a.emit(ctx, Event{Kind: EventConnected})

	linkCtx, cancel := context.WithCancel(ctx)
	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel() // a failed write ends the read pump too
		writeErr = a.writePump(linkCtx, c)
	}()

	readErr := a.readPump(linkCtx, c)
	a.connected.Store(false)
	cancel()
	wg.Wait()

	_ = c.Close(websocket.StatusNormalClosure, "client closing")

	err = errors.Join(readErr, writeErr)
	logDisconnect(a.logger, a.url, err)
	a.emitFinal(ctx, Event{Kind: EventDisconnected, Err: err})
	return err
}

// emit delivers ev unless ctx ends first.
func (a *Adapter) emit(ctx context.Context, ev Event) {
	select {
	case a.events <- ev:
	case <-ctx.Done():
	}
}

// emitFinal delivers the last event of the stream. Once ctx is done nobody
// may be reading, so it only tries the buffer.
func (a *Adapter) emitFinal(ctx context.Context, ev Event) {
	if ctx.Err() == nil {
		a.emit(ctx, ev)
		return
	}
	select {
	case a.events <- ev:
	default:
	}
}

// readPump decodes frames into events until the link fails or ctx ends.
func (a *Adapter) readPump(ctx context.Context, c *websocket.Conn) error {
	a.logger.Debug("conn: starting read pump")
	defer a.logger.Debug("conn: exiting read pump")

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				a.logger.Infof("conn: server closed the link (status %d)", status)
				return nil
			case ctx.Err() != nil || errors.Is(err, context.Canceled):
				a.logger.Debug("conn: read pump canceled")
				return nil
			default:
				a.logger.Warnf("conn: read error: %v (CloseStatus: %d)", err, status)
				return fmt.Errorf("read: %w", err)
			}
		}

		if typ != websocket.MessageText {
			a.logger.Warnf("conn: ignoring non-text frame of type %d", typ)
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownType) {
				a.logger.Debugf("conn: ignoring frame: %v", err)
			} else {
				a.logger.Warnf("conn: ignoring frame: %v", err)
			}
			continue
		}

		a.logger.WithField("type", msg.Kind()).Debug("conn: received")
		a.emit(ctx, Event{Kind: EventMessage, Message: msg})
	}
}

// writePump sends queued frames and periodic pings. A failed write or ping
// ends the link.
func (a *Adapter) writePump(ctx context.Context, c *websocket.Conn) error {
	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case frame := <-a.outbound:
			writeCtx, cancel := context.WithTimeout(ctx, a.writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, frame.data)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Warnf("conn: failed to write %s: %v", frame.kind, err)
				return fmt.Errorf("write %s: %w", frame.kind, err)
			}
			a.logger.WithField("type", frame.kind).Debug("conn: sent")

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, a.writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Warnf("conn: ping failed: %v. Assuming disconnect.", err)
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}
