// Package session holds per-conversation state: the append-only transcript,
// the active feature, and the free-form fields gathered for it across turns.
//
// A Session is owned by exactly one orchestrator and mutated only between
// turns; it performs no locking of its own.
package session

import (
	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// Session is the mutable context for one conversation.
type Session struct {
	ID            string
	ActiveFeature types.FeatureTarget
	GatheredInfo  map[string]string

	history []types.Message
}

// New creates a session with the given opaque identifier.
func New(id string) *Session {
	return &Session{
		ID:            id,
		ActiveFeature: types.FeatureNone,
		GatheredInfo:  make(map[string]string),
	}
}

// AppendMessage appends to the transcript. This is the sole mutator of
// transcript order. Timestamps are clamped so they never decrease relative
// to the previous message.
func (s *Session) AppendMessage(msg types.Message) {
	if n := len(s.history); n > 0 && msg.Timestamp.Before(s.history[n-1].Timestamp) {
		msg.Timestamp = s.history[n-1].Timestamp
	}
	s.history = append(s.history, msg)
}

// History returns a copy of the transcript in append order.
func (s *Session) History() []types.Message {
	out := make([]types.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of transcript messages.
func (s *Session) Len() int {
	return len(s.history)
}

// UpdateGatheredInfo shallow-merges fields into the gathered context for the
// active feature. Existing fields are only removed via ResetFeatureContext.
func (s *Session) UpdateGatheredInfo(fields map[string]string) {
	for k, v := range fields {
		s.GatheredInfo[k] = v
	}
}

// SetActiveFeature switches the active feature. Switching to a different
// feature resets the gathered context, so a half-finished content brief
// cannot bleed into a new strategic-plan request.
func (s *Session) SetActiveFeature(feature types.FeatureTarget) {
	if feature != s.ActiveFeature {
		s.ResetFeatureContext()
	}
	s.ActiveFeature = feature
}

// ResetFeatureContext discards all gathered fields.
func (s *Session) ResetFeatureContext() {
	s.GatheredInfo = make(map[string]string)
}
