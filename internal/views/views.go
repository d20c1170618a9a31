// internal/views/views.go

// Package views maps a session state to exactly one screen. Screens carry the
// labels and enabled flags the terminal UI draws, and gate which intents can
// be built at all.
package views

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/bombparty/internal/session"
)

// Screen is one of the five mutually exclusive presentations.
type Screen interface {
	Name() string
	isScreen()
}

// Connecting is shown until the link is up, and again whenever it drops
// before the game ended.
type Connecting struct {
	Text string
}

// LobbyEntry asks for a player name.
type LobbyEntry struct {
	Title       string
	Tagline     string
	Placeholder string
	Button      string
}

// CanJoin reports whether draft is an acceptable name.
func (LobbyEntry) CanJoin(draft string) bool {
	return strings.TrimSpace(draft) != ""
}

// WaitingRoom lists joined players and offers the start vote.
type WaitingRoom struct {
	Title      string
	Hint       string
	CountLabel string
	Players    []string

	// The vote block is hidden while the roster is empty.
	ShowVote    bool
	VoteTally   string
	VoteLabel   string
	VoteEnabled bool
}

// PlayerRow is one entry of the in-game player list.
type PlayerRow struct {
	Name   string
	Hearts string
	Active bool
}

// PreviousPanel recalls the last question and its accepted answers.
type PreviousPanel struct {
	Title        string
	Question     string
	AnswersLabel string
	Answers      []string
}

// FeedbackLine is the line under the answer input.
type FeedbackLine struct {
	Text  string
	Style string
}

// ActiveGame is the in-turn screen.
type ActiveGame struct {
	MyTurn      bool
	TurnLabel   string
	Question    string
	Placeholder string
	SubmitLabel string

	// Ghost is another player's live draft; empty when there is none to show.
	Ghost       string
	GhostAuthor string

	Feedback FeedbackLine
	Players  []PlayerRow
	Previous *PreviousPanel
}

// InputEnabled reports whether the answer input accepts keystrokes.
func (g ActiveGame) InputEnabled() bool {
	return g.MyTurn
}

// CanSubmit reports whether draft may be submitted now.
func (g ActiveGame) CanSubmit(draft string) bool {
	return g.MyTurn && strings.TrimSpace(draft) != ""
}

// GameOver names the winner. It exposes no intents.
type GameOver struct {
	Title  string
	Winner string
	Hint   string
}

func (Connecting) Name() string  { return "connecting" }
func (LobbyEntry) Name() string  { return "lobby" }
func (WaitingRoom) Name() string { return "waiting" }
func (ActiveGame) Name() string  { return "game" }
func (GameOver) Name() string    { return "gameover" }

func (Connecting) isScreen()  {}
func (LobbyEntry) isScreen()  {}
func (WaitingRoom) isScreen() {}
func (ActiveGame) isScreen()  {}
func (GameOver) isScreen()    {}

// Project returns the screen for s. The Game Over screen survives a lost link.
func Project(s session.State) Screen {
	if s.Phase == session.GameOver {
		return GameOver{
			Title:  "🏆 Victoire !",
			Winner: s.Winner,
			Hint:   "Relance le client pour rejouer",
		}
	}
	if !s.Connected {
		return Connecting{Text: "Connexion au serveur..."}
	}

	switch s.Phase {
	case session.NotJoined:
		return LobbyEntry{
			Title:       "💣 BombParty",
			Tagline:     "Trouve un mot contenant la syllabe… avant que ça explose !",
			Placeholder: "Ton pseudo",
			Button:      "Rejoindre",
		}
	case session.WaitingRoom:
		return waitingRoom(s)
	case session.ActiveGame:
		return activeGame(s)
	}
	return Connecting{Text: "Connexion au serveur..."}
}

func waitingRoom(s session.State) WaitingRoom {
	r := s.Roster
	noun := "joueurs"
	if r.Count == 1 {
		noun = "joueur"
	}

	voted := s.Voted || r.HasVoted(s.Identity)
	label := "Lancer la partie"
	if voted {
		label = "✓ Vous avez voté"
	}

	return WaitingRoom{
		Title:       "⏳ En attente de joueurs…",
		Hint:        "La partie commence quand tout le monde a voté",
		CountLabel:  fmt.Sprintf("%d %s", r.Count, noun),
		Players:     r.Players,
		ShowVote:    r.Count > 0,
		VoteTally:   fmt.Sprintf("%d / %d ont voté", len(r.StartVotes), r.Count),
		VoteLabel:   label,
		VoteEnabled: s.CanVote(),
	}
}

func activeGame(s session.State) ActiveGame {
	g := s.Game
	mine := s.IsMyTurn()

	view := ActiveGame{
		MyTurn:      mine,
		Question:    g.Question,
		SubmitLabel: "Envoyer",
		Feedback:    feedbackLine(s.Feedback),
	}
	if mine {
		view.TurnLabel = "🎯 C'est ton tour !"
		view.Placeholder = "Tape un mot…"
	} else {
		view.TurnLabel = fmt.Sprintf("⏳ Tour de %s", g.ActivePlayer)
		view.Placeholder = "Ce n'est pas ton tour"
	}

	if t := s.Typing; t != nil && t.Text != "" && t.Author != s.Identity {
		view.Ghost = t.Text
		view.GhostAuthor = t.Author
	}

	view.Players = make([]PlayerRow, len(g.Players))
	for i, p := range g.Players {
		view.Players[i] = PlayerRow{
			Name:   p.Name,
			Hearts: strings.Repeat("♥", max(0, p.Lives)),
			Active: p.Name == g.ActivePlayer,
		}
	}

	if g.PreviousQuestion != "" {
		view.Previous = &PreviousPanel{
			Title:        "Mot précédent",
			Question:     g.PreviousQuestion,
			AnswersLabel: "Réponses correctes :",
			Answers:      g.PreviousQuestionAnswers,
		}
	}
	return view
}

func feedbackLine(f session.Feedback) FeedbackLine {
	if f.Kind == session.FeedbackNone {
		return FeedbackLine{}
	}
	return FeedbackLine{Text: f.Text, Style: f.Style}
}
