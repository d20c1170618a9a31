// internal/protocol/codec.go
package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnknownType is returned for frames whose tag is not an inbound kind.
	// Callers drop these frames.
	ErrUnknownType = errors.New("protocol: unknown message type")

	// ErrMalformed is returned for frames that are not JSON objects or do not
	// have the shape their tag requires.
	ErrMalformed = errors.New("protocol: malformed message")
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[Type]string{
	TypeLobby:    "lobby.json",
	TypeNewTurn:  "new_turn.json",
	TypeTyping:   "typing.json",
	TypeValid:    "valid.json",
	TypeInvalid:  "invalid.json",
	TypeExplode:  "explode.json",
	TypeGameOver: "game_over.json",
}

var inboundSchemas = mustCompileSchemas()

func mustCompileSchemas() map[Type]*jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	compiled := make(map[Type]*jsonschema.Schema, len(schemaFiles))
	for typ, file := range schemaFiles {
		raw, err := schemaFS.ReadFile("schemas/" + file)
		if err != nil {
			panic(fmt.Sprintf("protocol: read schema %s: %v", file, err))
		}
		url := "https://bombparty.schemas.local/inbound/" + file
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			panic(fmt.Sprintf("protocol: load schema %s: %v", file, err))
		}
		schema, err := c.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("protocol: compile schema %s: %v", file, err))
		}
		compiled[typ] = schema
	}
	return compiled
}

// Decode turns one text frame into a typed inbound message.
//
// Only the structure is checked. Whether the message makes sense right now
// (is it our turn, did we join) is for the session to decide.
func Decode(data []byte) (Inbound, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	schema, ok := inboundSchemas[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Type, err)
	}

	switch envelope.Type {
	case TypeLobby:
		var m Lobby
		return unmarshalInto(data, &m)
	case TypeNewTurn:
		var m NewTurn
		return unmarshalInto(data, &m)
	case TypeTyping:
		var m Typing
		return unmarshalInto(data, &m)
	case TypeValid:
		return decodeValid(data)
	case TypeInvalid:
		return Invalid{}, nil
	case TypeExplode:
		var m Explode
		return unmarshalInto(data, &m)
	case TypeGameOver:
		var m GameOver
		return unmarshalInto(data, &m)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
}

func unmarshalInto[T Inbound](data []byte, m *T) (Inbound, error) {
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return *m, nil
}

// decodeValid reads "anwser", the protocol's spelling. Some servers send
// "answer" instead; it is only used when "anwser" is absent.
func decodeValid(data []byte) (Inbound, error) {
	var raw struct {
		Anwser *string `json:"anwser"`
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case raw.Anwser != nil:
		return Valid{Anwser: *raw.Anwser}, nil
	case raw.Answer != nil:
		return Valid{Anwser: *raw.Answer}, nil
	}
	return Valid{}, nil
}

type joinFrame struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
}

type voteStartFrame struct {
	Type Type `json:"type"`
}

type submitFrame struct {
	Type   Type   `json:"type"`
	Answer string `json:"answer"`
}

type typingFrame struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// Encode produces the exact wire frame for an outbound message.
func Encode(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case Join:
		return json.Marshal(joinFrame{Type: TypeJoin, Name: m.Name})
	case VoteStart:
		return json.Marshal(voteStartFrame{Type: TypeVoteStart})
	case Submit:
		return json.Marshal(submitFrame{Type: TypeSubmit, Answer: m.Answer})
	case TypingUpdate:
		return json.Marshal(typingFrame{Type: TypeTyping, Text: m.Text})
	}
	return nil, fmt.Errorf("protocol: cannot encode %T", msg)
}
