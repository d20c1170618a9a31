// internal/session/state.go
package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jason-s-yu/bombparty/internal/protocol"
)

// Phase is the top-level mode of the client. Exactly one is active.
type Phase int

const (
	Connecting Phase = iota
	NotJoined
	WaitingRoom
	ActiveGame
	GameOver
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "Connecting"
	case NotJoined:
		return "NotJoined"
	case WaitingRoom:
		return "WaitingRoom"
	case ActiveGame:
		return "ActiveGame"
	case GameOver:
		return "GameOver"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

var validTransitions = map[Phase][]Phase{
	Connecting:  {NotJoined},
	NotJoined:   {WaitingRoom},
	WaitingRoom: {ActiveGame, GameOver},
	ActiveGame:  {ActiveGame, GameOver}, // a new turn re-enters ActiveGame
}

// CanTransitionTo reports whether target may follow p. Phases only move forward.
func (p Phase) CanTransitionTo(target Phase) bool {
	return slices.Contains(validTransitions[p], target)
}

// joined reports whether the player has sent JOIN and the game has not ended.
func (p Phase) joined() bool {
	return p == WaitingRoom || p == ActiveGame
}

// Roster is the waiting-room roster as last reported by the server.
type Roster struct {
	Count      int
	Players    []string // join order, duplicates allowed
	StartVotes []string
}

// HasVoted reports whether name appears among the start votes.
func (r Roster) HasVoted(name string) bool {
	return slices.Contains(r.StartVotes, name)
}

// AllVoted reports whether every player in a non-empty roster has voted.
func (r Roster) AllVoted() bool {
	return r.Count > 0 && len(r.StartVotes) == r.Count
}

// PlayerLives is one row of the in-game player list.
type PlayerLives struct {
	Name  string
	Lives int
}

// TurnKey identifies a turn. A change of either field means a new turn began.
type TurnKey struct {
	Question     string
	ActivePlayer string
}

// Snapshot is the game state as last reported by NEW_TURN.
type Snapshot struct {
	Question                string
	Players                 []PlayerLives
	ActivePlayer            string
	PreviousQuestion        string
	PreviousQuestionAnswers []string
}

// TurnKey returns the identity of the turn this snapshot describes.
func (g Snapshot) TurnKey() TurnKey {
	return TurnKey{Question: g.Question, ActivePlayer: g.ActivePlayer}
}

// FeedbackKind classifies the feedback line.
type FeedbackKind int

const (
	FeedbackNone FeedbackKind = iota
	FeedbackTurnSummary
	FeedbackValid
	FeedbackInvalid
	FeedbackExplode
)

func (k FeedbackKind) String() string {
	switch k {
	case FeedbackNone:
		return "none"
	case FeedbackTurnSummary:
		return "turnAnswerSummary"
	case FeedbackValid:
		return "valid"
	case FeedbackInvalid:
		return "invalid"
	case FeedbackExplode:
		return "explode"
	}
	return fmt.Sprintf("FeedbackKind(%d)", int(k))
}

// Feedback is the single feedback line under the answer input. It stays until
// the next event that produces feedback replaces it.
type Feedback struct {
	Kind  FeedbackKind
	Text  string
	Style string

	// Answers is only set for FeedbackTurnSummary: the accepted answers to the
	// previous question.
	Answers []string
}

// TypingSignal is the live draft of the active player.
type TypingSignal struct {
	Author string
	Text   string
}

// State is the whole client session. Every transition returns a new State;
// slices held by a State are never written to after it is built.
type State struct {
	Version   uint64
	Phase     Phase
	Connected bool

	Identity string
	Voted    bool

	Roster   Roster
	Game     Snapshot
	Feedback Feedback
	Typing   *TypingSignal
	Winner   string
}

// Initial is the state of a freshly started client.
func Initial() State {
	return State{Phase: Connecting}
}

// Terminal reports whether the game is over. A terminal state never changes.
func (s State) Terminal() bool {
	return s.Phase == GameOver
}

// IsMyTurn reports whether the local player is the active player.
func (s State) IsMyTurn() bool {
	return s.Phase == ActiveGame && s.Identity != "" && s.Identity == s.Game.ActivePlayer
}

// CanVote reports whether a start vote may be sent now.
func (s State) CanVote() bool {
	return s.Connected &&
		s.Phase == WaitingRoom &&
		!s.Voted &&
		s.Roster.Count > 0 &&
		!s.Roster.HasVoted(s.Identity) &&
		!s.Roster.AllVoted()
}

// CanSubmit reports whether answer may be submitted now.
func (s State) CanSubmit(answer string) bool {
	return s.Connected && s.IsMyTurn() && strings.TrimSpace(answer) != ""
}

func (s State) bump() State {
	s.Version++
	return s
}

// WithConnectivity applies a link status change from the transport.
func (s State) WithConnectivity(up bool) State {
	if s.Terminal() || s.Connected == up {
		return s
	}
	next := s
	next.Connected = up
	if up && s.Phase == Connecting {
		next.Phase = NotJoined
	}
	return next.bump()
}

const (
	invalidText       = "✗ Mot invalide"
	validTextFmt      = "✓ %s"
	eliminatedTextFmt = "💥 %s éliminé !"
	lostLifeTextFmt   = "💥 %s perd une vie !"
)

// Apply folds one server notification into the state. Notifications that
// mean nothing in the current phase leave the state untouched.
func (s State) Apply(msg protocol.Inbound) State {
	if s.Terminal() {
		return s
	}

	next := s
	switch m := msg.(type) {
	case protocol.Lobby:
		if !s.Phase.joined() {
			return s
		}
		next.Roster = Roster{
			Count:      m.Count,
			Players:    slices.Clone(m.Players),
			StartVotes: slices.Clone(m.StartVotes),
		}

	case protocol.NewTurn:
		if !s.Phase.joined() {
			return s
		}
		next.Phase = ActiveGame
		next.Game = snapshotFrom(m)
		next.Feedback = Feedback{
			Kind:    FeedbackTurnSummary,
			Text:    strings.Join(m.PreviousQuestionAnswers, ", "),
			Style:   "summary",
			Answers: slices.Clone(m.PreviousQuestionAnswers),
		}
		next.Typing = nil

	case protocol.Typing:
		if s.Phase != ActiveGame {
			return s
		}
		next.Typing = &TypingSignal{Author: m.Player, Text: m.Text}

	case protocol.Valid:
		if s.Phase != ActiveGame {
			return s
		}
		next.Feedback = Feedback{Kind: FeedbackValid, Text: fmt.Sprintf(validTextFmt, m.Anwser), Style: "valid"}

	case protocol.Invalid:
		if s.Phase != ActiveGame {
			return s
		}
		next.Feedback = Feedback{Kind: FeedbackInvalid, Text: invalidText, Style: "invalid"}

	case protocol.Explode:
		if s.Phase != ActiveGame {
			return s
		}
		text := fmt.Sprintf(lostLifeTextFmt, m.Player)
		if m.Eliminated {
			text = fmt.Sprintf(eliminatedTextFmt, m.Player)
		}
		next.Feedback = Feedback{Kind: FeedbackExplode, Text: text, Style: "explode"}

	case protocol.GameOver:
		if !s.Phase.joined() {
			return s
		}
		next.Phase = GameOver
		next.Winner = m.Winner

	default:
		return s
	}
	return next.bump()
}

func snapshotFrom(m protocol.NewTurn) Snapshot {
	players := make([]PlayerLives, len(m.Players))
	for i, p := range m.Players {
		players[i] = PlayerLives{Name: p.Name, Lives: p.Lives}
	}
	return Snapshot{
		Question:                m.Question,
		Players:                 players,
		ActivePlayer:            m.ActivePlayer,
		PreviousQuestion:        m.PreviousQuestion,
		PreviousQuestionAnswers: slices.Clone(m.PreviousQuestionAnswers),
	}
}

// Join records the chosen name and leaves the name-entry screen.
func (s State) Join(name string) (State, []protocol.Outbound) {
	name = strings.TrimSpace(name)
	if !s.Connected || s.Phase != NotJoined || name == "" {
		return s, nil
	}
	next := s
	next.Phase = WaitingRoom
	next.Identity = name
	return next.bump(), []protocol.Outbound{protocol.Join{Name: name}}
}

// VoteStart sends the start vote once per session.
func (s State) VoteStart() (State, []protocol.Outbound) {
	if !s.CanVote() {
		return s, nil
	}
	next := s
	next.Voted = true
	return next.bump(), []protocol.Outbound{protocol.VoteStart{}}
}

// Submit sends an answer. Clearing the draft is itself a typing change, so an
// empty TYPING follows. Feedback is left alone until the server answers.
func (s State) Submit(answer string) (State, []protocol.Outbound) {
	if !s.CanSubmit(answer) {
		return s, nil
	}
	return s, []protocol.Outbound{
		protocol.Submit{Answer: strings.TrimSpace(answer)},
		protocol.TypingUpdate{Text: ""},
	}
}

// UpdateTyping streams the current draft while it is our turn.
func (s State) UpdateTyping(text string) (State, []protocol.Outbound) {
	if !s.Connected || !s.IsMyTurn() {
		return s, nil
	}
	return s, []protocol.Outbound{protocol.TypingUpdate{Text: text}}
}
