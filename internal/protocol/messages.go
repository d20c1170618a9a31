// internal/protocol/messages.go
package protocol

import "encoding/json"

// Type is the value of the "type" field that tags every frame on the socket.
type Type string

// Server -> client.
const (
	TypeLobby    Type = "LOBBY"
	TypeNewTurn  Type = "NEW_TURN"
	TypeTyping   Type = "TYPING" // also sent client -> server
	TypeValid    Type = "Valid"
	TypeInvalid  Type = "Invalid"
	TypeExplode  Type = "EXPLODE"
	TypeGameOver Type = "GAME_OVER"
)

// Client -> server.
const (
	TypeJoin      Type = "JOIN"
	TypeVoteStart Type = "VOTE_START"
	TypeSubmit    Type = "SUBMIT"
)

// Inbound is one decoded server notification.
type Inbound interface {
	Kind() Type
	isInbound()
}

// Outbound is one client message ready to be encoded.
type Outbound interface {
	Kind() Type
	isOutbound()
}

// Lobby is the waiting-room roster. It always describes the full roster.
type Lobby struct {
	Count      int      `json:"count"`
	Players    []string `json:"players"`
	StartVotes []string `json:"startVotes,omitempty"`
}

// PlayerLives is one entry of the in-game player list.
type PlayerLives struct {
	Name  string `json:"name"`
	Lives int    `json:"lives"`
}

// NewTurn is the full game snapshot broadcast at the start of every turn.
type NewTurn struct {
	Question                string        `json:"question"`
	Players                 []PlayerLives `json:"players"`
	ActivePlayer            string        `json:"activePlayer"`
	PreviousQuestion        string        `json:"previousQuestion,omitempty"`
	PreviousQuestionAnswers []string      `json:"previousQuestionAnswers,omitempty"`

	// PreviousAnswers is loosely typed on the wire and, despite its name, can
	// hold the accepted answers to the new question. It is kept verbatim for
	// the journal and never shown.
	PreviousAnswers json.RawMessage `json:"previousAnswers,omitempty"`
}

// Typing is the active player's live draft, relayed by the server.
type Typing struct {
	Player string `json:"player"`
	Text   string `json:"text"`
}

// Valid reports an accepted word. The field is spelled "anwser" on the wire.
type Valid struct {
	Anwser string `json:"anwser"`
}

// Invalid reports a rejected word.
type Invalid struct{}

// Explode reports that the bomb went off on a player.
type Explode struct {
	Player     string `json:"player"`
	Eliminated bool   `json:"eliminated"`
}

// GameOver names the winner.
type GameOver struct {
	Winner string `json:"winner"`
}

func (Lobby) Kind() Type    { return TypeLobby }
func (NewTurn) Kind() Type  { return TypeNewTurn }
func (Typing) Kind() Type   { return TypeTyping }
func (Valid) Kind() Type    { return TypeValid }
func (Invalid) Kind() Type  { return TypeInvalid }
func (Explode) Kind() Type  { return TypeExplode }
func (GameOver) Kind() Type { return TypeGameOver }

func (Lobby) isInbound()    {}
func (NewTurn) isInbound()  {}
func (Typing) isInbound()   {}
func (Valid) isInbound()    {}
func (Invalid) isInbound()  {}
func (Explode) isInbound()  {}
func (GameOver) isInbound() {}

// Join asks the server to add the player under Name.
type Join struct {
	Name string
}

// VoteStart votes to start the game.
type VoteStart struct{}

// Submit proposes an answer for the current question.
type Submit struct {
	Answer string
}

// TypingUpdate streams the local draft while it is our turn.
type TypingUpdate struct {
	Text string
}

func (Join) Kind() Type         { return TypeJoin }
func (VoteStart) Kind() Type    { return TypeVoteStart }
func (Submit) Kind() Type       { return TypeSubmit }
func (TypingUpdate) Kind() Type { return TypeTyping }

func (Join) isOutbound()         {}
func (VoteStart) isOutbound()    {}
func (Submit) isOutbound()       {}
func (TypingUpdate) isOutbound() {}
