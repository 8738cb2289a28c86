// Package orchestrator drives the conversational turn loop. It is the only
// component with mutable state: each turn flows one direction through
// classify, context update, dispatch, and emit, and every other component is
// a stateless transform over the session it passes in.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/classifier"
	"github.com/NivraSD/SignalDesk-sub005/internal/dispatch"
	"github.com/NivraSD/SignalDesk-sub005/internal/emit"
	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
	"github.com/NivraSD/SignalDesk-sub005/internal/session"
	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// State is the turn loop's current position. Failures are per-turn, never
// session-fatal: FAILED always transitions back to IDLE.
type State string

const (
	StateIdle          State = "IDLE"
	StateClassifying   State = "CLASSIFYING"
	StateContextUpdate State = "CONTEXT_UPDATE"
	StateDispatching   State = "DISPATCHING"
	StateEmitting      State = "EMITTING"
	StateFailed        State = "FAILED"
)

// Config wires an orchestrator for one conversation.
type Config struct {
	// SessionID is the opaque identifier supplied at session creation.
	SessionID string

	// Generator is the generation backend.
	Generator gateway.Generator

	// Transcript receives every appended message in order.
	Transcript emit.MessageSink

	// Workspace receives every emitted work item.
	Workspace emit.WorkItemSink

	// QueueSize bounds turns waiting behind an in-flight dispatch
	// (default 16).
	QueueSize int

	Logger *zap.Logger
}

// Orchestrator owns one session and processes its turns strictly one at a
// time. Turns submitted while a dispatch is in flight are queued, never
// interleaved, so session mutations cannot race.
type Orchestrator struct {
	mu     sync.Mutex
	sess   *session.Session
	state  State
	closed bool

	dispatcher *dispatch.Dispatcher
	emitter    *emit.Emitter
	transcript emit.MessageSink
	workspace  emit.WorkItemSink
	logger     *zap.Logger

	turns  chan string
	stopCh chan struct{}
	doneCh chan struct{}
	cancel context.CancelFunc
}

// New creates an orchestrator and starts its turn worker.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Transcript == nil || cfg.Workspace == nil {
		return nil, fmt.Errorf("both transcript and workspace sinks are required")
	}
	if cfg.SessionID == "" {
		cfg.SessionID = types.NewSessionID()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		sess:       session.New(cfg.SessionID),
		state:      StateIdle,
		dispatcher: dispatch.New(cfg.Generator, cfg.Logger),
		emitter:    emit.New(cfg.Logger),
		transcript: cfg.Transcript,
		workspace:  cfg.Workspace,
		logger:     cfg.Logger,
		turns:      make(chan string, cfg.QueueSize),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		cancel:     cancel,
	}

	go o.run(ctx)
	return o, nil
}

// Submit queues a user turn. Queued turns are processed in submission
// order. Returns an error if the session is closed or the queue is full.
func (o *Orchestrator) Submit(text string) error {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return fmt.Errorf("session is closed")
	}

	select {
	case o.turns <- text:
		return nil
	default:
		return fmt.Errorf("turn queue is full")
	}
}

// Close tears the session down. Any in-flight dispatch is cancelled, and no
// session mutation or sink call happens after Close returns.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	close(o.stopCh)
	<-o.doneCh
}

// State returns the current turn-loop state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SessionID returns the session's opaque identifier.
func (o *Orchestrator) SessionID() string {
	return o.sess.ID
}

// History returns a copy of the transcript.
func (o *Orchestrator) History() []types.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.History()
}

// ActiveFeature returns the session's active feature target.
func (o *Orchestrator) ActiveFeature() types.FeatureTarget {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.ActiveFeature
}

// GatheredInfo returns a copy of the gathered context fields.
func (o *Orchestrator) GatheredInfo() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.sess.GatheredInfo))
	for k, v := range o.sess.GatheredInfo {
		out[k] = v
	}
	return out
}

// AppendMessage appends to the session transcript and forwards to the
// transcript sink, preserving a single ordering authority. No-op after
// Close. Implements emit.MessageSink so emitted work-item cards flow
// through the same path as every other message.
func (o *Orchestrator) AppendMessage(msg types.Message) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.sess.AppendMessage(msg)
	o.mu.Unlock()

	o.transcript.AppendMessage(msg)
}

// AddWorkItem forwards to the workspace sink unless the session is closed.
// Implements emit.WorkItemSink.
func (o *Orchestrator) AddWorkItem(item types.WorkItem) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	o.workspace.AddWorkItem(item)
}

// run is the turn worker. Exactly one turn is processed at a time.
func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.doneCh)

	for {
		select {
		case <-o.stopCh:
			return
		case text := <-o.turns:
			o.ProcessTurn(ctx, text)
		}
	}
}

// ProcessTurn runs one full turn synchronously. Every turn appends exactly
// one assistant message, even on total failure; errors never escape to the
// caller.
func (o *Orchestrator) ProcessTurn(ctx context.Context, text string) {
	// CLASSIFYING: pure, no session mutation yet.
	o.setState(StateClassifying)
	mode := classifier.ClassifyMode(text)
	feature := classifier.DetectFeature(text)

	o.logger.Debug("turn classified",
		zap.String("mode", string(mode)),
		zap.String("feature", string(feature)))

	// CONTEXT_UPDATE: append the user message, switch feature, merge any
	// gathered fields.
	o.setState(StateContextUpdate)
	if !o.updateContext(text, feature) {
		return // torn down
	}

	// DISPATCHING: the only suspension point.
	o.setState(StateDispatching)
	reply, items, err := o.dispatchTurn(ctx, feature, mode, text)
	if err != nil {
		o.failTurn(mode, feature, text, err)
		return
	}

	// EMITTING: assistant reply first, then the deduplicated batch to both
	// sinks.
	o.setState(StateEmitting)
	assistant := types.NewMessage(types.RoleAssistant, reply)
	assistant.Mode = mode
	o.AppendMessage(assistant)

	emitted := o.emitter.Emit(items, o, o)

	if len(emitted) > 0 {
		o.mu.Lock()
		if !o.closed {
			// A work item was produced for the active feature; its
			// gathering cycle is complete.
			o.sess.ResetFeatureContext()
		}
		o.mu.Unlock()
	}

	o.setState(StateIdle)
}

// updateContext performs the CONTEXT_UPDATE step. Reports false when the
// session was torn down underneath the turn.
func (o *Orchestrator) updateContext(text string, feature types.FeatureTarget) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if feature != types.FeatureNone {
		o.sess.SetActiveFeature(feature)
	}
	if fields := extractFields(text); len(fields) > 0 && o.sess.ActiveFeature != types.FeatureNone {
		o.sess.UpdateGatheredInfo(fields)
	}
	o.mu.Unlock()

	o.AppendMessage(types.NewMessage(types.RoleUser, text))
	return true
}

// dispatchTurn routes to the feature branch or plain conversation.
func (o *Orchestrator) dispatchTurn(ctx context.Context, feature types.FeatureTarget, mode types.ConsultationMode, text string) (string, []types.WorkItem, error) {
	if feature == types.FeatureNone {
		reply, err := o.dispatcher.Converse(ctx, mode, text, o.sess)
		return reply, nil, err
	}

	res, err := o.dispatcher.Dispatch(ctx, feature, mode, text, o.sess)
	if err != nil {
		return "", nil, err
	}
	return res.ReplyText, res.WorkItems, nil
}

// failTurn is the FAILED transition: log the gateway failure, keep the
// locally detected feature active so a resubmission picks up where the turn
// left off, and append exactly one recovery message. Always returns the
// loop to IDLE.
func (o *Orchestrator) failTurn(mode types.ConsultationMode, feature types.FeatureTarget, text string, err error) {
	o.setState(StateFailed)

	var genErr *gateway.GenerationError
	if errors.As(err, &genErr) {
		o.logger.Warn("dispatch failed",
			zap.String("kind", string(genErr.Kind)),
			zap.Error(err))
	} else {
		o.logger.Warn("dispatch failed", zap.Error(err))
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if feature != types.FeatureNone {
		o.sess.SetActiveFeature(feature)
	}
	o.mu.Unlock()

	reply := types.NewMessage(types.RoleAssistant, fallbackReply(mode))
	reply.Mode = mode
	o.AppendMessage(reply)

	o.setState(StateIdle)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.state = s
	o.mu.Unlock()
}

// fallbackReply is the recovery text when the gateway is unreachable. The
// conversation continues; the failure is never surfaced as an exception.
func fallbackReply(mode types.ConsultationMode) string {
	if mode == types.ModeCrisisResponse {
		return "I'm having trouble reaching the generation service, but let's keep moving. Give me the key facts and I'll help you shape the response right here."
	}
	return "I encountered an issue reaching the generation service. What would you like to work on?"
}

// extractFields skims a turn for "key: value" lines and returns them as
// gathered context. Keys are short phrases; anything that looks like a URL
// or a sentence is ignored.
func extractFields(text string) map[string]string {
	var fields map[string]string

	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || value == "" {
			continue
		}
		if strings.ContainsAny(key, "/?") || len(strings.Fields(key)) > 4 {
			continue
		}
		if strings.HasPrefix(value, "//") {
			continue
		}

		if fields == nil {
			fields = make(map[string]string)
		}
		fields[strings.ToLower(key)] = value
	}
	return fields
}
