// internal/session/machine.go
package session

import (
	"github.com/jason-s-yu/bombparty/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Sender delivers outbound messages. Delivery is fire-and-forget.
type Sender interface {
	Send(msg protocol.Outbound)
}

// Source says where the cause of a transition came from.
type Source string

const (
	SourceLink   Source = "link"   // connectivity change
	SourceServer Source = "server" // inbound notification
	SourceLocal  Source = "local"  // user intent
)

// Transition describes one committed step of the session.
type Transition struct {
	From, To State
	Source   Source
	Name     string // inbound type, intent name, or "connected"/"disconnected"

	Inbound  protocol.Inbound    // set when Source is SourceServer
	Outbound []protocol.Outbound // messages handed to the Sender, in order
}

// PhaseChanged reports whether the transition moved to another phase.
func (t Transition) PhaseChanged() bool {
	return t.From.Phase != t.To.Phase
}

// Observer is notified after every committed transition. Observers run on
// the caller's goroutine and must not block.
type Observer interface {
	Observe(t Transition)
}

// Machine owns the session state. It is not safe for concurrent use: events
// and intents must be fed from a single goroutine, one at a time.
type Machine struct {
	state     State
	sender    Sender
	logger    *logrus.Logger
	observers []Observer
}

// NewMachine starts a session in the Connecting phase.
func NewMachine(sender Sender, logger *logrus.Logger, observers ...Observer) *Machine {
	return &Machine{
		state:     Initial(),
		sender:    sender,
		logger:    logger,
		observers: observers,
	}
}

// State returns the current session record.
func (m *Machine) State() State {
	return m.state
}

// AddObserver registers o for subsequent transitions.
func (m *Machine) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// SetConnected applies a link status change.
func (m *Machine) SetConnected(up bool) {
	name := "disconnected"
	if up {
		name = "connected"
	}
	m.commit(Transition{From: m.state, To: m.state.WithConnectivity(up), Source: SourceLink, Name: name})
}

// Receive applies one decoded server notification.
func (m *Machine) Receive(msg protocol.Inbound) {
	if msg == nil {
		return
	}
	m.commit(Transition{
		From:    m.state,
		To:      m.state.Apply(msg),
		Source:  SourceServer,
		Name:    string(msg.Kind()),
		Inbound: msg,
	})
}

// Join handles the "join with name" intent. It reports whether the intent
// was accepted.
func (m *Machine) Join(name string) bool {
	next, out := m.state.Join(name)
	return m.commit(Transition{From: m.state, To: next, Source: SourceLocal, Name: "join", Outbound: out})
}

// VoteStart handles the "vote to start" intent.
func (m *Machine) VoteStart() bool {
	next, out := m.state.VoteStart()
	return m.commit(Transition{From: m.state, To: next, Source: SourceLocal, Name: "vote_start", Outbound: out})
}

// Submit handles the "submit answer" intent.
func (m *Machine) Submit(answer string) bool {
	next, out := m.state.Submit(answer)
	return m.commit(Transition{From: m.state, To: next, Source: SourceLocal, Name: "submit", Outbound: out})
}

// UpdateTyping handles a change of the local answer draft.
func (m *Machine) UpdateTyping(text string) bool {
	next, out := m.state.UpdateTyping(text)
	return m.commit(Transition{From: m.state, To: next, Source: SourceLocal, Name: "typing", Outbound: out})
}

// commit installs t.To, hands outbound messages to the sender and notifies
// observers. Transitions that change nothing and send nothing are dropped.
func (m *Machine) commit(t Transition) bool {
	if t.To.Version == t.From.Version && len(t.Outbound) == 0 {
		m.logger.WithFields(logrus.Fields{
			"phase":  t.From.Phase,
			"source": t.Source,
			"event":  t.Name,
		}).Debug("session: event ignored")
		return false
	}
	if t.PhaseChanged() && !t.From.Phase.CanTransitionTo(t.To.Phase) {
		m.logger.WithFields(logrus.Fields{
			"from":  t.From.Phase,
			"to":    t.To.Phase,
			"event": t.Name,
		}).Error("session: refusing backward phase transition")
		return false
	}

	m.state = t.To
	for _, msg := range t.Outbound {
		m.sender.Send(msg)
	}

	entry := m.logger.WithFields(logrus.Fields{
		"phase":   t.To.Phase,
		"version": t.To.Version,
		"source":  t.Source,
		"event":   t.Name,
	})
	if t.PhaseChanged() {
		entry.Infof("session: %s -> %s", t.From.Phase, t.To.Phase)
	} else {
		entry.Debug("session: transition")
	}

	for _, o := range m.observers {
		o.Observe(t)
	}
	return true
}
