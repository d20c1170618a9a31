// internal/journal/journal.go

// Package journal records every committed session transition and ships the
// records to an external queue for later replay or analysis.
package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bombparty/internal/protocol"
	"github.com/jason-s-yu/bombparty/internal/session"
	"github.com/sirupsen/logrus"
)

// Direction of a recorded message relative to this client.
const (
	DirectionIn    = "in"
	DirectionOut   = "out"
	DirectionLink  = "link"
	DirectionLocal = "local"
)

// Record is one journal entry.
type Record struct {
	SessionID uuid.UUID       `json:"session_id"`
	Index     int             `json:"index"`
	Direction string          `json:"direction"`
	Type      string          `json:"type"`
	Phase     string          `json:"phase"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Publisher ships records somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

const (
	defaultBufferSize = 256
	publishTimeout    = 5 * time.Second
	drainTimeout      = 2 * time.Second
)

// Journal is a session observer. Observe never blocks; records are published
// by Run on its own goroutine.
type Journal struct {
	sessionID uuid.UUID
	pub       Publisher
	logger    *logrus.Logger
	queue     chan Record
	now       func() time.Time

	index int // only touched by Observe
}

// New creates a journal whose records carry sessionID. A non-positive
// bufferSize selects the default.
func New(sessionID uuid.UUID, pub Publisher, logger *logrus.Logger, bufferSize int) *Journal {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Journal{
		sessionID: sessionID,
		pub:       pub,
		logger:    logger,
		queue:     make(chan Record, bufferSize),
		now:       time.Now,
	}
}

// SessionID identifies this client run in every record.
func (j *Journal) SessionID() uuid.UUID {
	return j.sessionID
}

// Observe turns a transition into records and queues them. Records that do
// not fit in the buffer are dropped.
func (j *Journal) Observe(t session.Transition) {
	for _, rec := range j.records(t) {
		select {
		case j.queue <- rec:
		default:
			j.logger.WithFields(logrus.Fields{
				"session": j.sessionID,
				"index":   rec.Index,
				"type":    rec.Type,
			}).Warn("journal: buffer full, dropping record")
		}
	}
}

func (j *Journal) records(t session.Transition) []Record {
	ts := j.now().UnixMilli()
	phase := t.To.Phase.String()
	next := func(dir, typ string, payload json.RawMessage) Record {
		j.index++
		return Record{
			SessionID: j.sessionID,
			Index:     j.index,
			Direction: dir,
			Type:      typ,
			Phase:     phase,
			Payload:   payload,
			Timestamp: ts,
		}
	}

	var recs []Record
	switch t.Source {
	case session.SourceServer:
		payload, err := json.Marshal(t.Inbound)
		if err != nil {
			j.logger.Warnf("journal: failed to marshal %s: %v", t.Name, err)
		}
		recs = append(recs, next(DirectionIn, t.Name, payload))
	case session.SourceLink:
		recs = append(recs, next(DirectionLink, t.Name, nil))
	case session.SourceLocal:
		if len(t.Outbound) == 0 {
			recs = append(recs, next(DirectionLocal, t.Name, nil))
		}
	}
	for _, msg := range t.Outbound {
		payload, err := protocol.Encode(msg)
		if err != nil {
			j.logger.Warnf("journal: failed to encode %s: %v", msg.Kind(), err)
		}
		recs = append(recs, next(DirectionOut, string(msg.Kind()), payload))
	}
	return recs
}

// Run publishes queued records until ctx ends, then makes a short best-effort
// attempt to flush what is still buffered.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case rec := <-j.queue:
			j.publish(ctx, rec)
		case <-ctx.Done():
			j.drain()
			return
		}
	}
}

func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case rec := <-j.queue:
			j.publish(ctx, rec)
		default:
			return
		}
	}
}

func (j *Journal) publish(ctx context.Context, rec Record) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := j.pub.Publish(pubCtx, rec); err != nil {
		j.logger.Warnf("journal: failed to publish record %d: %v", rec.Index, err)
	}
}
