package snapshot_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

func TestSnapshot_Total(t *testing.T) {
	t.Parallel()

	snap := snapshot.Snapshot{
		{Name: "a.js", Size: 100, CompressedSize: 40},
		{Name: "b.js", Size: 250, CompressedSize: 90},
	}

	assert.Equal(t, snapshot.AggregateSize{Size: 350, CompressedSize: 130}, snap.Total())
	assert.Equal(t, snapshot.AggregateSize{}, snapshot.Snapshot(nil).Total())
}

func TestSnapshot_Validate_DuplicateName(t *testing.T) {
	t.Parallel()

	snap := snapshot.Snapshot{{Name: "a.js"}, {Name: "b.js"}, {Name: "a.js"}}

	err := snap.Validate()
	require.ErrorIs(t, err, snapshot.ErrDuplicateName)
	assert.Contains(t, err.Error(), "a.js")

	assert.NoError(t, snapshot.Snapshot{{Name: "a.js"}}.Validate())
}

func TestFileRecord_KeyHelpers(t *testing.T) {
	t.Parallel()

	rec := snapshot.FileRecord{Name: "chunk.abc.js"}

	_, ok := rec.KeyValue()
	assert.False(t, ok)

	keyed := rec.WithKey("chunk")
	key, ok := keyed.KeyValue()
	assert.True(t, ok)
	assert.Equal(t, "chunk", key)

	_, ok = rec.KeyValue()
	assert.False(t, ok, "WithKey must not modify the receiver")

	_, ok = keyed.WithoutKey().KeyValue()
	assert.False(t, ok)
}

func TestFileRecord_PersistedFieldNames(t *testing.T) {
	t.Parallel()

	rec := snapshot.FileRecord{
		Name:           "dist/app.js",
		Relative:       "dist/app.js",
		Full:           "/work/dist/app.js",
		Size:           1234,
		CompressedSize: 567,
	}.WithKey("app")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.ElementsMatch(t, []string{"name", "relative", "full", "size", "gzip"}, keysOf(fields))
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
