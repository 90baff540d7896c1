package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceChangelog struct {
	entries []ChangelogEntry
	pos     int
}

func (s *sliceChangelog) Next(ctx context.Context) (ChangelogEntry, bool, error) {
	if s.pos >= len(s.entries) {
		return ChangelogEntry{}, false, nil
	}
	entry := s.entries[s.pos]
	s.pos++
	return entry, true, nil
}

func readAll(t *testing.T, entries ...ChangelogEntry) *Tasks {
	t.Helper()
	tasks, err := TasksReader{}.Read(context.Background(), &sliceChangelog{entries: entries})
	require.NoError(t, err)
	return tasks
}

func TestReadTasksModifiedTwice(t *testing.T) {
	tasks := readAll(t,
		ChangelogEntry{ID: "/documents/0034-8910-rsp-48-2-0347", Timestamp: "2018-08-05 23:03:44.971230Z"},
		ChangelogEntry{ID: "/documents/0034-8910-rsp-48-2-0347", Timestamp: "2018-08-06 08:02:23.743451Z"},
	)

	assert.Equal(t, []Task{{ID: "/documents/0034-8910-rsp-48-2-0347", Action: ActionGet}}, tasks.Items)
	assert.Equal(t, "2018-08-06 08:02:23.743451Z", tasks.Timestamp)
}

func TestReadTasksModifiedThenDeleted(t *testing.T) {
	tasks := readAll(t,
		ChangelogEntry{ID: "/documents/0034-8910-rsp-48-2-0347", Timestamp: "2018-08-05 23:03:44.971230Z"},
		ChangelogEntry{ID: "/documents/0034-8910-rsp-48-2-0347", Timestamp: "2018-08-06 08:02:23.743451Z", Deleted: true},
	)

	assert.Equal(t, []Task{{ID: "/documents/0034-8910-rsp-48-2-0347", Action: ActionDelete}}, tasks.Items)
}

func TestReadTasksDeletedThenModified(t *testing.T) {
	tasks := readAll(t,
		ChangelogEntry{ID: "/documents/abc", Timestamp: "t1", Deleted: true},
		ChangelogEntry{ID: "/documents/abc", Timestamp: "t2"},
	)

	assert.Equal(t, []Task{{ID: "/documents/abc", Action: ActionGet}}, tasks.Items)
}

func TestReadTasksFirstEventDeleted(t *testing.T) {
	// A never-before-seen id whose first event is a deletion still yields
	// a delete task.
	tasks := readAll(t,
		ChangelogEntry{ID: "/documents/abc", Timestamp: "t1", Deleted: true},
	)

	assert.Equal(t, []Task{{ID: "/documents/abc", Action: ActionDelete}}, tasks.Items)
}

func TestReadTasksPreservesFirstSeenOrder(t *testing.T) {
	tasks := readAll(t,
		ChangelogEntry{ID: "/documents/A", Timestamp: "t1"},
		ChangelogEntry{ID: "/documents/B", Timestamp: "t2", Deleted: true},
		ChangelogEntry{ID: "/documents/A", Timestamp: "t3"},
	)

	assert.Equal(t, []Task{
		{ID: "/documents/A", Action: ActionGet},
		{ID: "/documents/B", Action: ActionDelete},
	}, tasks.Items)
	assert.Equal(t, "t3", tasks.Timestamp)
}

func TestReadTasksEmptyChangelog(t *testing.T) {
	tasks := readAll(t)

	assert.Empty(t, tasks.Items)
	assert.Empty(t, tasks.Timestamp)
}

func TestTasksFilters(t *testing.T) {
	tasks := &Tasks{Items: []Task{
		{ID: "/documents/doc-1", Action: ActionGet},
		{ID: "/journals/1678-4464", Action: ActionGet},
		{ID: "/documents/doc-2", Action: ActionDelete},
		{ID: "/documents/doc-1/assets/x", Action: ActionGet},
	}}

	assert.Equal(t, []Task{
		{ID: "/documents/doc-1", Action: ActionGet},
		{ID: "/documents/doc-2", Action: ActionDelete},
	}, tasks.Docs())
	assert.Equal(t, []Task{{ID: "/documents/doc-1", Action: ActionGet}}, tasks.DocsToGet())
	assert.Equal(t, []Task{{ID: "/documents/doc-2", Action: ActionDelete}}, tasks.DocsToDel())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "get", ActionGet.String())
	assert.Equal(t, "delete", ActionDelete.String())
}
