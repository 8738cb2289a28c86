// Package emit delivers a dispatch batch of work items to both consumers:
// the transcript (as inline work-item messages) and the external workspace
// callback. Exact duplicates within one batch are suppressed; nothing is
// remembered across batches, so re-generation is always allowed and
// unrelated batches can never shadow each other.
package emit

import (
	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// MessageSink receives ordered transcript messages.
type MessageSink interface {
	AppendMessage(msg types.Message)
}

// WorkItemSink receives emitted work items, one call per item.
type WorkItemSink interface {
	AddWorkItem(item types.WorkItem)
}

// Emitter deduplicates and fans out one dispatch batch. Stateless across
// batches. Calling Emit twice on the same batch is a caller bug by contract;
// the emitter does not guard against it.
type Emitter struct {
	logger *zap.Logger
}

// New creates an emitter.
func New(logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{logger: logger}
}

// Emit filters the batch (an item survives iff no earlier item in the same
// batch shares its type and title) and delivers each survivor exactly once
// to each sink, transcript first then workspace. Returns the survivors.
func (e *Emitter) Emit(batch []types.WorkItem, transcript MessageSink, workspace WorkItemSink) []types.WorkItem {
	kept := dedupe(batch)

	for i := range kept {
		item := kept[i]
		transcript.AppendMessage(workItemMessage(item))
		workspace.AddWorkItem(item)
	}

	if dropped := len(batch) - len(kept); dropped > 0 {
		e.logger.Debug("suppressed duplicate work items", zap.Int("dropped", dropped))
	}
	return kept
}

type batchKey struct {
	itemType types.FeatureTarget
	title    string
}

// dedupe keeps the first occurrence of each (type, title) pair.
func dedupe(batch []types.WorkItem) []types.WorkItem {
	seen := make(map[batchKey]struct{}, len(batch))
	kept := make([]types.WorkItem, 0, len(batch))

	for _, item := range batch {
		key := batchKey{itemType: item.Type, title: item.Title}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}

// workItemMessage wraps an item as an inline transcript card.
func workItemMessage(item types.WorkItem) types.Message {
	msg := types.NewMessage(types.RoleWorkItem, item.Title)
	itemCopy := item
	msg.WorkItem = &itemCopy
	return msg
}
