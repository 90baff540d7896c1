package domain

import (
	"context"
	"regexp"
)

// ChangelogEntry is one event from the upstream changes feed. Timestamps
// are RFC-3339-like strings whose lexicographic order matches delivery
// order; the reducer relies only on relative order.
type ChangelogEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// Changelog is a lazy, finite, non-restartable event stream. Next returns
// ok=false once the stream is exhausted.
type Changelog interface {
	Next(ctx context.Context) (ChangelogEntry, bool, error)
}

// Action is the reduced intent for a single document id.
type Action int

const (
	ActionGet Action = iota
	ActionDelete
)

func (a Action) String() string {
	if a == ActionDelete {
		return "delete"
	}
	return "get"
}

// Task pairs a changelog id with its final action.
type Task struct {
	ID     string
	Action Action
}

// Tasks is the reduction of a changelog: one task per distinct id in
// first-seen order, plus the timestamp of the last observed entry (the
// harvest watermark; empty for an empty changelog).
type Tasks struct {
	Items     []Task
	Timestamp string
}

var docIDPattern = regexp.MustCompile(`^/documents/[A-Za-z0-9_-]+$`)

// Docs returns the tasks whose id addresses a document. Journal and other
// non-document ids are dropped.
func (t *Tasks) Docs() []Task {
	var out []Task
	for _, task := range t.Items {
		if docIDPattern.MatchString(task.ID) {
			out = append(out, task)
		}
	}
	return out
}

func (t *Tasks) DocsToGet() []Task {
	return t.filterDocs(ActionGet)
}

func (t *Tasks) DocsToDel() []Task {
	return t.filterDocs(ActionDelete)
}

func (t *Tasks) filterDocs(a Action) []Task {
	var out []Task
	for _, task := range t.Docs() {
		if task.Action == a {
			out = append(out, task)
		}
	}
	return out
}

// The reducer is a two-state machine per document id. A fresh id starts
// enqueued; a deleted event moves it to deleted; a modified event moves it
// back. The surviving action depends only on the last event seen.
type reducerState uint8

const (
	stateEnqueued reducerState = iota
	stateDeleted
)

func (s reducerState) onEvent(deleted bool) reducerState {
	if deleted {
		return stateDeleted
	}
	return stateEnqueued
}

func (s reducerState) action() Action {
	if s == stateDeleted {
		return ActionDelete
	}
	return ActionGet
}

// TasksReader collapses an ordered changelog into Tasks.
type TasksReader struct{}

// Read consumes the changelog to exhaustion, driving one reducer per id.
// The returned task order is the order ids were first seen.
func (TasksReader) Read(ctx context.Context, changelog Changelog) (*Tasks, error) {
	states := make(map[string]reducerState)
	var order []string
	var last string

	for {
		entry, ok, err := changelog.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		last = entry.Timestamp
		state, seen := states[entry.ID]
		if !seen {
			order = append(order, entry.ID)
		}
		states[entry.ID] = state.onEvent(entry.Deleted)
	}

	tasks := &Tasks{Timestamp: last}
	for _, id := range order {
		tasks.Items = append(tasks.Items, Task{ID: id, Action: states[id].action()})
	}
	return tasks, nil
}
