// Package conversation holds the ordered turn list that is sent to the
// language model on every direct chat.
package conversation

import (
	"errors"
	"fmt"
	"maps"

	"github.com/ziadkadry99/kompas/internal/llm"
)

// ErrInvalidTurnRole is returned when imported history contains a turn whose
// role is not system, user or assistant.
var ErrInvalidTurnRole = errors.New("invalid turn role")

// Role is the closed set of turn authors.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the recognised roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is one message of the dialogue. Metadata carries auxiliary data such
// as the source filenames of a retrieval answer.
type Turn struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"additional_kwargs"`
}

// Validate checks the turn's role.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTurnRole, t.Role)
	}
	return nil
}

func (t Turn) clone() Turn {
	t.Metadata = maps.Clone(t.Metadata)
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	return t
}

func (t Turn) message() llm.Message {
	return llm.Message{Role: llm.Role(t.Role), Content: t.Content}
}
