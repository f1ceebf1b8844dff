package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
		want Operation
	}{
		{"create then modify", []Operation{OpCreate, OpModify, OpModify}, OpCreate},
		{"modify then delete", []Operation{OpModify, OpDelete}, OpDelete},
		{"delete then create", []Operation{OpDelete, OpCreate}, OpModify},
		{"modify twice", []Operation{OpModify, OpModify}, OpModify},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(20 * time.Millisecond)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "a.jsonl", Operation: op})
			}

			batch := nextBatch(t, d)
			require.Len(t, batch, 1)
			assert.Equal(t, tt.want, batch[0].Operation)
		})
	}
}

func TestDebouncer_CreateThenDeleteCancels(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	// When: a file appears and disappears within the window, next to another change
	d.Add(FileEvent{Path: "tmp.jsonl", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.jsonl", Operation: OpDelete})
	d.Add(FileEvent{Path: "keep.jsonl", Operation: OpModify})

	// Then: only the surviving path is emitted
	batch := nextBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "keep.jsonl", batch[0].Path)
}

func TestDebouncer_BatchIsSortedByPath(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	for _, p := range []string{"c.jsonl", "a.jsonl", "b.jsonl"} {
		d.Add(FileEvent{Path: p, Operation: OpCreate})
	}

	batch := nextBatch(t, d)
	require.Len(t, batch, 3)
	assert.Equal(t, "a.jsonl", batch[0].Path)
	assert.Equal(t, "c.jsonl", batch[2].Path)
}

func TestDebouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "a.jsonl", Operation: OpCreate})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.jsonl", Operation: OpCreate})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
