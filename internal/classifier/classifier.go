// Package classifier maps free-form user input to a consultation mode and,
// when creation intent is present, a feature target. It is a prioritized
// rule cascade over case-insensitive substring matches: pure, deterministic,
// and total (every input resolves to a mode).
package classifier

import (
	"strings"

	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// Vocabulary groups, evaluated in cascade order. Crisis outranks everything,
// including creation verbs: "urgent, create a crisis statement now" is a
// crisis turn, not a material-creation turn.
var (
	crisisWords = []string{
		"urgent", "emergency", "crisis", "asap", "immediately",
		"right now", "scandal", "backlash", "damage control", "breaking",
	}

	reviewWords = []string{
		"review", "feedback on", "take a look", "look over", "attached",
		"attachment", "proofread", "check this", "critique",
	}

	creationWords = []string{
		"create", "write", "draft", "generate", "make", "develop",
		"prepare", "build", "plan", "need a", "need an", "put together",
	}

	analysisWords = []string{
		"analyze", "analyse", "evaluate", "assess", "what do you think",
		"compare", "how effective", "measure",
	}
)

// Feature keyword groups. More specific artifact vocabulary is checked
// before the broader strategy vocabulary so "write a press release about the
// launch" routes to content generation rather than planning.
var (
	mediaWords = []string{
		"media list", "media contacts", "journalist", "reporter",
		"press list", "outlet", "media intelligence", "press contacts",
	}

	contentWords = []string{
		"press release", "tweet", "social post", "social media", "post",
		"article", "blog", "statement", "pitch", "announcement",
		"talking points", "op-ed", "newsletter", "speech", "email",
		"content", "headline", "byline",
	}

	strategyWords = []string{
		"strategic plan", "strategy", "plan", "campaign", "roadmap",
		"launch", "timeline", "rollout",
	}
)

// ClassifyMode resolves the consultation mode for a turn. First match wins;
// the fallback is ModeAdvisory, so there is always a classification.
func ClassifyMode(text string) types.ConsultationMode {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, crisisWords):
		return types.ModeCrisisResponse
	case containsAny(lower, reviewWords):
		return types.ModeReview
	case containsAny(lower, creationWords):
		return types.ModeMaterialCreation
	case containsAny(lower, analysisWords):
		return types.ModeAnalysis
	default:
		return types.ModeAdvisory
	}
}

// DetectFeature resolves which feature a turn targets. Detection is gated on
// creation vocabulary: topical keywords alone never select a feature, so
// casual conversation about "trending topics" does not switch features. The
// gate applies on every turn, even when a feature is already active, which
// keeps detection a pure function of the turn text.
//
// Given creation intent, the first matching topic group wins; with creation
// intent but no topic match the result is FeatureNone ("wants to make
// something" is not "wants to make this specific artifact type").
func DetectFeature(text string) types.FeatureTarget {
	lower := strings.ToLower(text)

	if !containsAny(lower, creationWords) {
		return types.FeatureNone
	}

	switch {
	case containsAny(lower, mediaWords):
		return types.FeatureMediaIntelligence
	case containsAny(lower, contentWords):
		return types.FeatureContentGenerator
	case containsAny(lower, strategyWords):
		return types.FeatureStrategicPlanning
	default:
		return types.FeatureNone
	}
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
