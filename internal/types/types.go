// Package types holds the shared data model for the conversational
// orchestration engine: messages, consultation modes, feature targets, and
// work items. Everything here is plain data; behavior lives in the packages
// that consume it.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleWorkItem  Role = "work-item"
)

// ConsultationMode is the classified strategic posture of a single turn.
// Exactly one mode is active per turn; it is recomputed every turn from the
// input text and never persisted as an independent source of truth.
type ConsultationMode string

const (
	ModeAdvisory         ConsultationMode = "ADVISORY"
	ModeAnalysis         ConsultationMode = "ANALYSIS"
	ModeMaterialCreation ConsultationMode = "MATERIAL_CREATION"
	ModeReview           ConsultationMode = "REVIEW"
	ModeCrisisResponse   ConsultationMode = "CRISIS_RESPONSE"
)

// FeatureTarget identifies the specialized artifact-generation capability a
// turn is routed to. FeatureNone means the turn stays purely conversational.
type FeatureTarget string

const (
	FeatureStrategicPlanning FeatureTarget = "strategic-planning"
	FeatureContentGenerator  FeatureTarget = "content-generator"
	FeatureMediaIntelligence FeatureTarget = "media-intelligence"
	FeatureNone              FeatureTarget = "none"
)

// WorkItem is a normalized, ready-to-render artifact produced by one
// generation call. Immutable once created. Two items within the same
// dispatch batch are duplicates iff Type and Title are identical.
type WorkItem struct {
	Type             FeatureTarget     `json:"type"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	GeneratedContent any               `json:"generatedContent"`
	Details          map[string]string `json:"details"`
}

// Message is one entry in the append-only session transcript.
// Work-item messages carry the emitted item inline so transcript consumers
// can render a card without consulting the workspace sink.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
	Mode      ConsultationMode `json:"mode,omitempty"`
	WorkItem  *WorkItem        `json:"workItem,omitempty"`
}

// NewMessage builds a transcript message with a fresh ID and the current
// time. The caller attaches Mode or WorkItem afterwards where relevant.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewSessionID returns an opaque session identifier for callers that do not
// bring their own.
func NewSessionID() string {
	return uuid.NewString()
}
