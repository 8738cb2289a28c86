package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
	"github.com/NivraSD/SignalDesk-sub005/internal/session"
	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// mockGenerator records the last request and replays a scripted response.
type mockGenerator struct {
	lastReq gateway.Request
	resp    *gateway.Response
	err     error
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestDispatch_RequestBuilding(t *testing.T) {
	gen := &mockGenerator{resp: &gateway.Response{Text: "a plan"}}
	d := New(gen, nil)

	sess := session.New("sess-1")
	sess.SetActiveFeature(types.FeatureStrategicPlanning)
	sess.UpdateGatheredInfo(map[string]string{"audience": "tech press"})

	_, err := d.Dispatch(context.Background(), types.FeatureStrategicPlanning,
		types.ModeMaterialCreation, "I need a strategic plan for the launch", sess)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", gen.lastReq.SessionID)
	assert.Equal(t, types.ModeMaterialCreation, gen.lastReq.Mode)
	assert.Equal(t, "tech press", gen.lastReq.Context["audience"])
	assert.Contains(t, gen.lastReq.Message, "I need a strategic plan for the launch")
	assert.Contains(t, gen.lastReq.Message, "- audience: tech press")
	assert.Contains(t, gen.lastReq.Message, "campaign plan")
}

func TestDispatch_RequiresFeature(t *testing.T) {
	d := New(&mockGenerator{}, nil)

	_, err := d.Dispatch(context.Background(), types.FeatureNone,
		types.ModeAdvisory, "hello", session.New("sess-1"))
	assert.Error(t, err)
}

func TestDispatch_BackendWorkItemsWin(t *testing.T) {
	gen := &mockGenerator{resp: &gateway.Response{
		Text: "here you go",
		WorkItems: []gateway.RawWorkItem{
			{
				Type:             "content-generator",
				Title:            "Launch Tweet",
				Description:      "announcement tweet",
				GeneratedContent: json.RawMessage(`"Big news today!"`),
			},
		},
	}}
	d := New(gen, nil)

	res, err := d.Dispatch(context.Background(), types.FeatureContentGenerator,
		types.ModeMaterialCreation, "write a tweet about the launch", session.New("sess-1"))
	require.NoError(t, err)

	require.Len(t, res.WorkItems, 1)
	item := res.WorkItems[0]
	assert.Equal(t, types.FeatureContentGenerator, item.Type)
	assert.Equal(t, "Launch Tweet", item.Title)
	assert.Equal(t, "announcement tweet", item.Description)
	assert.Equal(t, "Big news today!", item.GeneratedContent)
	assert.NotEmpty(t, res.ReplyText)
}

func TestDispatch_PartialBackendItemGetsDefaults(t *testing.T) {
	gen := &mockGenerator{resp: &gateway.Response{
		Text:      "fallback text",
		WorkItems: []gateway.RawWorkItem{{Type: "unknown-type"}},
	}}
	d := New(gen, nil)

	res, err := d.Dispatch(context.Background(), types.FeatureStrategicPlanning,
		types.ModeMaterialCreation, "plan a campaign for the spring launch", session.New("sess-1"))
	require.NoError(t, err)

	require.Len(t, res.WorkItems, 1)
	item := res.WorkItems[0]
	assert.Equal(t, types.FeatureStrategicPlanning, item.Type)
	assert.NotEmpty(t, item.Title)
	assert.NotEmpty(t, item.Description)
	assert.Equal(t, "4 weeks", item.Details["Duration"])
	assert.Equal(t, "Proposed", item.Details["Status"])
	assert.Equal(t, "High", item.Details["Priority"])
}

func TestDispatch_TextOnlySynthesizesItem(t *testing.T) {
	t.Run("strategic planning", func(t *testing.T) {
		gen := &mockGenerator{resp: &gateway.Response{
			Text:              "Phase 1: awareness\nPhase 2: launch",
			StrategicAnalysis: "strong hook",
		}}
		d := New(gen, nil)

		res, err := d.Dispatch(context.Background(), types.FeatureStrategicPlanning,
			types.ModeMaterialCreation, "I need a strategic plan for our product launch", session.New("sess-1"))
		require.NoError(t, err)

		require.Len(t, res.WorkItems, 1)
		item := res.WorkItems[0]
		assert.Equal(t, types.FeatureStrategicPlanning, item.Type)
		assert.Contains(t, item.Title, "Strategic Plan")
		assert.Equal(t, "Phase 1: awareness\nPhase 2: launch", item.GeneratedContent)
		assert.Equal(t, "strong hook", item.Details["Analysis"])
	})

	t.Run("media intelligence counts entries", func(t *testing.T) {
		gen := &mockGenerator{resp: &gateway.Response{
			Text: "- Jane Doe, TechWire\n- Sam Lee, The Register\n\nnote: both tier 1",
		}}
		d := New(gen, nil)

		res, err := d.Dispatch(context.Background(), types.FeatureMediaIntelligence,
			types.ModeMaterialCreation, "build a media list for the launch", session.New("sess-1"))
		require.NoError(t, err)

		require.Len(t, res.WorkItems, 1)
		item := res.WorkItems[0]
		assert.Contains(t, item.Title, "Media List")
		assert.Equal(t, "2", item.Details["Journalists"])
		assert.Equal(t, "Compiled", item.Details["Status"])
	})

	t.Run("content gets word count and kind", func(t *testing.T) {
		gen := &mockGenerator{resp: &gateway.Response{
			Text: "We are thrilled to announce our new press release today",
		}}
		d := New(gen, nil)

		res, err := d.Dispatch(context.Background(), types.FeatureContentGenerator,
			types.ModeMaterialCreation, "draft a press release about the funding", session.New("sess-1"))
		require.NoError(t, err)

		require.Len(t, res.WorkItems, 1)
		item := res.WorkItems[0]
		assert.Equal(t, "10 words", item.Details["Length"])
		assert.Equal(t, "Press Release", item.Details["Type"])
		assert.Contains(t, item.Title, "Press Release Draft")
	})
}

func TestDispatch_EmptyResponseYieldsNoItems(t *testing.T) {
	gen := &mockGenerator{resp: &gateway.Response{Text: "   "}}
	d := New(gen, nil)

	res, err := d.Dispatch(context.Background(), types.FeatureContentGenerator,
		types.ModeMaterialCreation, "write a tweet", session.New("sess-1"))
	require.NoError(t, err)

	assert.Empty(t, res.WorkItems)
	assert.NotEmpty(t, res.ReplyText)
}

func TestDispatch_GatewayErrorPassesThrough(t *testing.T) {
	genErr := &gateway.GenerationError{Kind: gateway.KindTimeout, Message: "slow backend"}
	d := New(&mockGenerator{err: genErr}, nil)

	_, err := d.Dispatch(context.Background(), types.FeatureContentGenerator,
		types.ModeMaterialCreation, "write a tweet", session.New("sess-1"))

	var got *gateway.GenerationError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, gateway.KindTimeout, got.Kind)
}

func TestConverse(t *testing.T) {
	t.Run("returns backend text", func(t *testing.T) {
		gen := &mockGenerator{resp: &gateway.Response{Text: "happy to help"}}
		d := New(gen, nil)

		reply, err := d.Converse(context.Background(), types.ModeAdvisory, "any advice?", session.New("sess-1"))
		require.NoError(t, err)
		assert.Equal(t, "happy to help", reply)

		// Conversational turns carry no feature prompt framing.
		assert.Equal(t, "any advice?", gen.lastReq.Message)
	})

	t.Run("falls back to analysis then canned text", func(t *testing.T) {
		gen := &mockGenerator{resp: &gateway.Response{StrategicAnalysis: "good angle"}}
		d := New(gen, nil)

		reply, err := d.Converse(context.Background(), types.ModeAnalysis, "thoughts?", session.New("sess-1"))
		require.NoError(t, err)
		assert.Equal(t, "good angle", reply)

		gen.resp = &gateway.Response{}
		reply, err = d.Converse(context.Background(), types.ModeAdvisory, "ok", session.New("sess-1"))
		require.NoError(t, err)
		assert.NotEmpty(t, reply)
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(types.FeatureMediaIntelligence, "media list for fintech",
		map[string]string{"region": "US", "beat": "fintech"})

	assert.Contains(t, prompt, "media relations researcher")
	assert.Contains(t, prompt, "media list for fintech")
	assert.Contains(t, prompt, "- beat: fintech")
	assert.Contains(t, prompt, "- region: US")
}

func TestTopicOf(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"write a tweet about the product launch", "the product launch"},
		{"a plan for Q3 in Europe with partners and more words after", "Q3 in Europe with partners and"},
		{"no marker here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, topicOf(tt.text))
	}
}
