// Package report delivers the ordered lifecycle events callers use to
// sequence dependent work: ready, tasksReady, tasksRunning, taskDone,
// allTasksDone, done. The pipeline emits them from one orchestrating
// function so the ordering invariant holds by construction.
package report

import "sync"

// EventType names a lifecycle milestone.
type EventType string

const (
	// EventReady fires once the registry is constructed and items scanned.
	EventReady EventType = "ready"
	// EventTasksReady fires when registration is complete, before execution.
	EventTasksReady EventType = "tasksReady"
	// EventTasksRunning fires after the last needed task is handed to the
	// executor, not after it completes.
	EventTasksRunning EventType = "tasksRunning"
	// EventTaskDone fires once per settled task.
	EventTaskDone EventType = "taskDone"
	// EventAllTasksDone fires once the executor drains.
	EventAllTasksDone EventType = "allTasksDone"
	// EventDone fires last, after manifests are persisted.
	EventDone EventType = "done"
)

// Counts carries run aggregates on tasksReady and done events.
type Counts struct {
	Requested int
	Needed    int
	Completed int
}

// Event is one delivered milestone. Command and Item are set on taskDone;
// Payload carries the public metadata snapshot where the milestone has one.
type Event struct {
	Type    EventType
	Counts  Counts
	Command string
	Item    string
	Payload map[string]any
}

// Reporter fans events out to subscribers in subscription order. Emission
// is serialized, so subscribers observe the same order events were emitted.
type Reporter struct {
	mu   sync.Mutex
	subs []func(Event)
}

// New constructs an empty reporter.
func New() *Reporter {
	return &Reporter{}
}

// Subscribe registers a callback for every subsequent event.
func (r *Reporter) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// Emit delivers the event to every subscriber. The lock is held across
// delivery so concurrent emitters cannot interleave events.
func (r *Reporter) Emit(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fn := range r.subs {
		fn(event)
	}
}
