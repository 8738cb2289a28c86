package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

const contentPromptTemplate = `You are a senior PR writer. Produce the requested communication material.

Request: %s
%s
Output only the material itself, ready for review. No preamble.`

const strategyPromptTemplate = `You are a PR strategist. Produce a structured campaign plan with phases, timeline, and key actions.

Request: %s
%s
Output the plan as short titled sections.`

const mediaPromptTemplate = `You are a media relations researcher. Produce a targeted media list with outlets, journalist names, beats, and tiers.

Request: %s
%s
Output one entry per line.`

// buildPrompt merges the user's turn with the gathered context fields into a
// feature-specific generation prompt.
func buildPrompt(feature types.FeatureTarget, userText string, gathered map[string]string) string {
	template := contentPromptTemplate
	switch feature {
	case types.FeatureStrategicPlanning:
		template = strategyPromptTemplate
	case types.FeatureMediaIntelligence:
		template = mediaPromptTemplate
	}
	return fmt.Sprintf(template, userText, gatheredBlock(gathered))
}

// gatheredBlock renders accumulated context fields in stable key order, or
// an empty string when nothing has been gathered yet.
func gatheredBlock(gathered map[string]string) string {
	if len(gathered) == 0 {
		return ""
	}

	keys := make([]string, 0, len(gathered))
	for k := range gathered {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Context gathered so far:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, gathered[k])
	}
	return b.String()
}
