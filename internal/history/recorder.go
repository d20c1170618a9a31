// internal/history/recorder.go

// Package history keeps a record of finished matches in Postgres.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bombparty/internal/protocol"
	"github.com/jason-s-yu/bombparty/internal/session"
	"github.com/sirupsen/logrus"
)

// MatchStore is the subset of Store the recorder needs.
type MatchStore interface {
	RecordMatch(ctx context.Context, m Match) error
}

const writeTimeout = 10 * time.Second

// Recorder is a session observer that counts turns and writes one Match when
// the session reaches GameOver. The write happens on its own goroutine.
type Recorder struct {
	store     MatchStore
	logger    *logrus.Logger
	sessionID uuid.UUID
	now       func() time.Time

	turns    int
	recorded bool
	wg       sync.WaitGroup
}

// NewRecorder builds a recorder for the session identified by sessionID.
func NewRecorder(store MatchStore, logger *logrus.Logger, sessionID uuid.UUID) *Recorder {
	return &Recorder{
		store:     store,
		logger:    logger,
		sessionID: sessionID,
		now:       time.Now,
	}
}

func (r *Recorder) Observe(t session.Transition) {
	if t.Source == session.SourceServer && t.Inbound != nil && t.Inbound.Kind() == protocol.TypeNewTurn {
		r.turns++
	}
	if r.recorded || !t.PhaseChanged() || t.To.Phase != session.GameOver {
		return
	}
	r.recorded = true

	m := matchFrom(t.To, r.sessionID, r.turns, r.now())
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.store.RecordMatch(ctx, m); err != nil {
			r.logger.Warnf("history: failed to record match %s: %v", m.ID, err)
			return
		}
		r.logger.WithFields(logrus.Fields{
			"match":  m.ID,
			"winner": m.Winner,
			"turns":  m.Turns,
		}).Info("history: match recorded")
	}()
}

// Wait blocks until pending writes finish.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func matchFrom(s session.State, sessionID uuid.UUID, turns int, now time.Time) Match {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	players := make([]PlayerResult, len(s.Game.Players))
	for i, p := range s.Game.Players {
		players[i] = PlayerResult{Name: p.Name, Lives: p.Lives}
	}
	return Match{
		ID:         id,
		SessionID:  sessionID,
		Identity:   s.Identity,
		Winner:     s.Winner,
		Players:    players,
		Turns:      turns,
		FinishedAt: now.UTC(),
	}
}
