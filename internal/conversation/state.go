package conversation

import (
	"fmt"
	"sync"

	"github.com/ziadkadry99/kompas/internal/llm"
)

// State is the ordered list of turns for a single conversation. All methods
// are safe for concurrent use; none of them block on I/O.
type State struct {
	mu    sync.Mutex
	turns []Turn
	seed  []Turn
	// gen increments whenever the turn list is replaced wholesale so a
	// Mark taken before a Reset or Import is recognised as stale.
	gen uint64
}

// Mark records the position of an appended turn so it can be rolled back.
type Mark struct {
	gen uint64
	pos int
	ok  bool
}

// New creates a State seeded with a system prompt and, when salutation is
// non-empty, a user turn carrying it.
func New(systemPrompt, salutation string) *State {
	seed := []Turn{{Role: RoleSystem, Content: systemPrompt}}
	if salutation != "" {
		seed = append(seed, Turn{Role: RoleUser, Content: salutation})
	}
	s := &State{seed: cloneTurns(seed)}
	s.turns = cloneTurns(seed)
	return s
}

// Append adds a turn at the end. Empty content is a no-op and the returned
// Mark cannot roll anything back.
func (s *State) Append(role Role, content string) (Mark, error) {
	return s.AppendTurn(Turn{Role: role, Content: content})
}

// AppendTurn is Append with metadata.
func (s *State) AppendTurn(t Turn) (Mark, error) {
	if err := t.Validate(); err != nil {
		return Mark{}, err
	}
	if t.Content == "" {
		return Mark{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := Mark{gen: s.gen, pos: len(s.turns), ok: true}
	s.turns = append(s.turns, t.clone())
	return m, nil
}

// Current returns a Mark for the present end of the history. Pass it to
// AppendAfter to append only if nothing replaced the history meanwhile.
func (s *State) Current() Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Mark{gen: s.gen, pos: len(s.turns), ok: true}
}

// AppendAfter appends turns as one step, but only when the history has not
// been reset or imported since m was taken. It reports whether the turns
// were added. Turns with empty content are skipped.
func (s *State) AppendAfter(m Mark, turns ...Turn) (bool, error) {
	for _, t := range turns {
		if err := t.Validate(); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.ok || m.gen != s.gen {
		return false, nil
	}
	for _, t := range turns {
		if t.Content != "" {
			s.turns = append(s.turns, t.clone())
		}
	}
	return true, nil
}

// Rollback removes the turn recorded by m and everything after it, provided
// the history has not been replaced since. It reports whether anything was
// removed.
func (s *State) Rollback(m Mark) bool {
	if !m.ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.gen != s.gen || m.pos >= len(s.turns) {
		return false
	}
	s.turns = s.turns[:m.pos]
	return true
}

// Export returns a copy of the turns in chronological order.
func (s *State) Export() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTurns(s.turns)
}

// Import replaces the whole history with turns, verbatim. Nothing is changed
// if any turn has an unknown role.
func (s *State) Import(turns []Turn) error {
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = cloneTurns(turns)
	s.gen++
	return nil
}

// Reset discards every turn and restores the seed.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = cloneTurns(s.seed)
	s.gen++
}

// Messages converts the current history into LLM messages.
func (s *State) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]llm.Message, len(s.turns))
	for i, t := range s.turns {
		msgs[i] = t.message()
	}
	return msgs
}

// Len returns the number of turns.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t.clone()
	}
	return out
}
