package model

import "time"

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ContextState tracks what, if anything, the conversation is currently
// waiting on before campus- or role-specific questions can be answered.
type ContextState int

const (
	StateUnset ContextState = iota
	StateAwaitingCampus
	StateAwaitingRole
	StateAwaitingBoth
	StateResolved
)

func (s ContextState) String() string {
	switch s {
	case StateAwaitingCampus:
		return "awaiting_campus"
	case StateAwaitingRole:
		return "awaiting_role"
	case StateAwaitingBoth:
		return "awaiting_both"
	case StateResolved:
		return "resolved"
	default:
		return "unset"
	}
}

type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one ongoing conversation. The session store owns it; the
// orchestrator borrows it for the duration of a single turn under the
// per-session lock and must not keep a reference afterwards.
type Session struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	// Role/Campus, once set, are only ever overwritten by an explicit new
	// declaration from the user, never by weaker inference.
	Role   string `json:"role,omitempty"`
	Campus string `json:"campus,omitempty"`

	State ContextState `json:"state"`

	// PendingQuestion holds the original query while the session waits for
	// missing context; it is replayed once the user supplies it.
	PendingQuestion string `json:"pending_question,omitempty"`

	History      []Turn    `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// AppendTurn records a turn and trims the oldest entries once the history
// exceeds limit, so prompt size stays bounded no matter how long the
// conversation runs.
func (s *Session) AppendTurn(speaker Speaker, text string, limit int, now time.Time) {
	s.History = append(s.History, Turn{Speaker: speaker, Text: text, Timestamp: now})
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
	s.LastActiveAt = now
}

// RecentHistory returns up to n of the latest turns, oldest first.
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
