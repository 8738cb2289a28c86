// Package dispatch routes a classified turn to its feature branch: it builds
// the feature-specific generation request, calls the gateway, and maps the
// raw response into zero or more normalized work items plus a reply text.
//
// The dispatcher tolerates partial and missing fields in the raw response.
// A response with no usable artifact yields zero work items and a
// best-effort reply; it never fabricates an item from nothing and never
// returns a shape error to the caller.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
	"github.com/NivraSD/SignalDesk-sub005/internal/session"
	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// Result is the outcome of one dispatch cycle: a reply for the transcript
// and the batch of work items produced by it.
type Result struct {
	ReplyText string
	WorkItems []types.WorkItem
}

// Dispatcher builds feature requests and normalizes generation responses.
// Stateless; all conversation state arrives through the session.
type Dispatcher struct {
	gen    gateway.Generator
	logger *zap.Logger
}

// New creates a dispatcher over the given generation backend.
func New(gen gateway.Generator, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{gen: gen, logger: logger}
}

// Dispatch runs the feature branch for the turn. Gateway failures are
// returned to the caller (the orchestrator owns retry/fallback policy);
// malformed responses are absorbed into a zero-item Result.
func (d *Dispatcher) Dispatch(ctx context.Context, feature types.FeatureTarget, mode types.ConsultationMode, userText string, sess *session.Session) (*Result, error) {
	if feature == types.FeatureNone {
		return nil, fmt.Errorf("dispatch called without a feature target")
	}

	req := gateway.Request{
		Message:   buildPrompt(feature, userText, sess.GatheredInfo),
		Context:   copyFields(sess.GatheredInfo),
		Mode:      mode,
		SessionID: sess.ID,
	}

	resp, err := d.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	items := d.normalize(feature, resp, userText)
	d.logger.Debug("dispatch completed",
		zap.String("feature", string(feature)),
		zap.Int("workItems", len(items)))

	return &Result{
		ReplyText: replyText(feature, resp, len(items)),
		WorkItems: items,
	}, nil
}

// Converse handles a purely conversational turn: a single request with mode
// only, no feature framing, surfaced as reply text.
func (d *Dispatcher) Converse(ctx context.Context, mode types.ConsultationMode, userText string, sess *session.Session) (string, error) {
	resp, err := d.gen.Generate(ctx, gateway.Request{
		Message:   userText,
		Mode:      mode,
		SessionID: sess.ID,
	})
	if err != nil {
		return "", err
	}

	if resp.Text != "" {
		return resp.Text, nil
	}
	if resp.StrategicAnalysis != "" {
		return resp.StrategicAnalysis, nil
	}
	return "I've noted that. What would you like to work on next?", nil
}

// normalize maps the raw response into work items. Backend-provided items
// win; otherwise a non-empty completion is itself the artifact. An empty or
// unparseable response produces no items.
func (d *Dispatcher) normalize(feature types.FeatureTarget, resp *gateway.Response, userText string) []types.WorkItem {
	if len(resp.WorkItems) > 0 {
		items := make([]types.WorkItem, 0, len(resp.WorkItems))
		for _, raw := range resp.WorkItems {
			items = append(items, d.normalizeRaw(feature, raw, resp, userText))
		}
		return items
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil
	}

	return []types.WorkItem{{
		Type:             feature,
		Title:            deriveTitle(feature, userText),
		Description:      deriveDescription(feature, userText),
		GeneratedContent: text,
		Details:          defaultDetails(feature, text, resp.StrategicAnalysis),
	}}
}

// normalizeRaw fills a backend work item's gaps with feature defaults.
// Missing fields become sensible values, never errors.
func (d *Dispatcher) normalizeRaw(feature types.FeatureTarget, raw gateway.RawWorkItem, resp *gateway.Response, userText string) types.WorkItem {
	itemType := parseFeature(raw.Type, feature)

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = deriveTitle(itemType, userText)
	}

	desc := strings.TrimSpace(raw.Description)
	if desc == "" {
		desc = deriveDescription(itemType, userText)
	}

	content := decodeContent(raw.GeneratedContent)
	contentText, _ := content.(string)
	if contentText == "" {
		contentText = resp.Text
	}

	return types.WorkItem{
		Type:             itemType,
		Title:            title,
		Description:      desc,
		GeneratedContent: content,
		Details:          defaultDetails(itemType, contentText, resp.StrategicAnalysis),
	}
}

// decodeContent unwraps the opaque payload: JSON strings become strings,
// other valid JSON becomes its decoded value, anything else is kept as raw
// text.
func decodeContent(raw json.RawMessage) any {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	if v == nil {
		return ""
	}
	return v
}

// parseFeature maps a backend type string onto a known feature target,
// falling back to the dispatching feature.
func parseFeature(s string, fallback types.FeatureTarget) types.FeatureTarget {
	switch types.FeatureTarget(strings.TrimSpace(s)) {
	case types.FeatureStrategicPlanning:
		return types.FeatureStrategicPlanning
	case types.FeatureContentGenerator:
		return types.FeatureContentGenerator
	case types.FeatureMediaIntelligence:
		return types.FeatureMediaIntelligence
	default:
		return fallback
	}
}

// replyText chooses the transcript reply. The turn is never silently
// dropped: even with zero items there is a reply.
func replyText(feature types.FeatureTarget, resp *gateway.Response, itemCount int) string {
	if itemCount > 0 {
		switch feature {
		case types.FeatureStrategicPlanning:
			return "I've drafted a strategic plan for you. It's in your workspace, and I can adjust phases or timeline."
		case types.FeatureMediaIntelligence:
			return "I've compiled a media list for you. It's in your workspace; tell me if you want different beats or tiers."
		default:
			return "I've drafted that for you. It's in your workspace, and I'm happy to revise tone, length, or angle."
		}
	}

	if text := strings.TrimSpace(resp.Text); text != "" {
		return text
	}
	if resp.StrategicAnalysis != "" {
		return resp.StrategicAnalysis
	}
	return "I wasn't able to produce a usable draft from that. Could you share a bit more about what you need?"
}

// deriveTitle names the artifact from the request topic when the backend
// does not supply a title.
func deriveTitle(feature types.FeatureTarget, userText string) string {
	base := "Content Draft"
	switch feature {
	case types.FeatureStrategicPlanning:
		base = "Strategic Plan"
	case types.FeatureMediaIntelligence:
		base = "Media List"
	case types.FeatureContentGenerator:
		base = contentKind(userText) + " Draft"
	}

	if topic := topicOf(userText); topic != "" {
		return base + ": " + topic
	}
	return base
}

func deriveDescription(feature types.FeatureTarget, userText string) string {
	switch feature {
	case types.FeatureStrategicPlanning:
		return "Campaign plan generated from: " + summarize(userText)
	case types.FeatureMediaIntelligence:
		return "Targeted media contacts for: " + summarize(userText)
	default:
		return "Generated from: " + summarize(userText)
	}
}

// defaultDetails supplies the display metadata the UI layer requires
// unconditionally; the backend does not reliably include it.
func defaultDetails(feature types.FeatureTarget, contentText, analysis string) map[string]string {
	var details map[string]string
	switch feature {
	case types.FeatureStrategicPlanning:
		details = map[string]string{
			"Duration": "4 weeks",
			"Status":   "Proposed",
			"Priority": "High",
		}
	case types.FeatureMediaIntelligence:
		details = map[string]string{
			"Journalists": fmt.Sprintf("%d", entryCount(contentText)),
			"Tier 1":      "TBD",
			"Status":      "Compiled",
		}
	default:
		details = map[string]string{
			"Length": fmt.Sprintf("%d words", len(strings.Fields(contentText))),
			"Status": "Draft",
			"Type":   contentKind(contentText),
		}
	}

	if analysis != "" {
		details["Analysis"] = analysis
	}
	return details
}

// contentKind guesses the material type from vocabulary.
func contentKind(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "press release"):
		return "Press Release"
	case strings.Contains(lower, "tweet"), strings.Contains(lower, "social"):
		return "Social Post"
	case strings.Contains(lower, "blog"), strings.Contains(lower, "article"):
		return "Article"
	case strings.Contains(lower, "statement"):
		return "Statement"
	case strings.Contains(lower, "speech"), strings.Contains(lower, "talking points"):
		return "Speech"
	case strings.Contains(lower, "email"), strings.Contains(lower, "newsletter"):
		return "Email"
	default:
		return "Content"
	}
}

// topicOf extracts the request subject: the words following "about" or
// "for", capped to a short phrase.
func topicOf(text string) string {
	lower := strings.ToLower(text)
	idx := -1
	for _, marker := range []string{" about ", " for ", " on "} {
		if i := strings.Index(lower, marker); i >= 0 {
			idx = i + len(marker)
			break
		}
	}
	if idx < 0 {
		return ""
	}

	words := strings.Fields(text[idx:])
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Trim(strings.Join(words, " "), ".,;:!?")
}

func summarize(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 120 {
		return text[:120] + "..."
	}
	return text
}

// entryCount counts list-style lines, used to estimate journalists in a
// generated media list.
func entryCount(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || startsWithDigit(trimmed) {
			count++
		}
	}
	return count
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func copyFields(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
