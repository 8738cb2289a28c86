package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

func TestClassifyMode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.ConsultationMode
	}{
		{"crisis keyword", "this is urgent, the story broke an hour ago", types.ModeCrisisResponse},
		{"crisis phrase", "we need damage control on the supplier story", types.ModeCrisisResponse},
		{"crisis outranks creation", "urgent: draft a holding statement now", types.ModeCrisisResponse},
		{"review request", "can you review the attached press release", types.ModeReview},
		{"review outranks creation", "take a look at the plan I wrote", types.ModeReview},
		{"creation verb", "write a press release for the funding round", types.ModeMaterialCreation},
		{"creation via need a", "I need a strategic plan for our product launch", types.ModeMaterialCreation},
		{"analysis", "analyze how our last campaign performed", types.ModeAnalysis},
		{"question is advisory", "what do reporters care about these days?", types.ModeAdvisory},
		{"empty input is advisory", "", types.ModeAdvisory},
		{"case insensitive", "URGENT: the CEO resigned", types.ModeCrisisResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMode(tt.text))
		})
	}
}

func TestClassifyMode_AlwaysResolves(t *testing.T) {
	inputs := []string{"", "   ", "??", "hello", "\n\n", "🎉"}
	for _, in := range inputs {
		assert.NotEmpty(t, ClassifyMode(in))
	}
}

func TestDetectFeature(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.FeatureTarget
	}{
		{
			"strategy with creation verb",
			"I need a strategic plan for our product launch",
			types.FeatureStrategicPlanning,
		},
		{
			"content with creation verb",
			"write a tweet about the new release",
			types.FeatureContentGenerator,
		},
		{
			"media with creation verb",
			"put together a media list for the healthcare beat",
			types.FeatureMediaIntelligence,
		},
		{
			"topic words without creation intent",
			"what do reporters want from a media list?",
			types.FeatureNone,
		},
		{
			"creation intent without a topic",
			"can you make something great for us",
			types.FeatureNone,
		},
		{
			"topic talk inside an active feature stays gated",
			"our campaign is about sustainability",
			types.FeatureNone,
		},
		{
			"content beats strategy on overlap",
			"draft a press release about the campaign launch",
			types.FeatureContentGenerator,
		},
		{
			"media beats content on overlap",
			"build a media list with journalist emails",
			types.FeatureMediaIntelligence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFeature(tt.text))
		})
	}
}

// The canonical two-turn flow: a planning request followed by a switch to
// content creation.
func TestClassify_TwoTurnFlow(t *testing.T) {
	turn1 := "I need a strategic plan for launching our new sustainability product line"
	assert.Equal(t, types.ModeMaterialCreation, ClassifyMode(turn1))
	assert.Equal(t, types.FeatureStrategicPlanning, DetectFeature(turn1))

	turn2 := "actually, write a tweet announcing the launch instead"
	assert.Equal(t, types.ModeMaterialCreation, ClassifyMode(turn2))
	assert.Equal(t, types.FeatureContentGenerator, DetectFeature(turn2))
}
