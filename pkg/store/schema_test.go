package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
	"github.com/Sumatoshi-tech/bundlesize/pkg/store"
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	raw := `[{"name":"a.js","relative":"a.js","full":"/r/a.js","size":10,"gzip":7}]`

	snap, err := store.Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, snapshot.Snapshot{{Name: "a.js", Relative: "a.js", Full: "/r/a.js", Size: 10, CompressedSize: 7}}, snap)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not an array":     `{"name":"a.js"}`,
		"missing gzip":     `[{"name":"a.js","relative":"a.js","full":"/a.js","size":1}]`,
		"negative size":    `[{"name":"a.js","relative":"a.js","full":"/a.js","size":-1,"gzip":0}]`,
		"string size":      `[{"name":"a.js","relative":"a.js","full":"/a.js","size":"1","gzip":0}]`,
		"empty name":       `[{"name":"","relative":"a.js","full":"/a.js","size":1,"gzip":0}]`,
		"duplicate names":  `[{"name":"a.js","relative":"a","full":"/a","size":1,"gzip":0},{"name":"a.js","relative":"a","full":"/a","size":2,"gzip":0}]`,
		"malformed json":   `[{`,
		"null document":    `null`,
		"fractional bytes": `[{"name":"a.js","relative":"a.js","full":"/a.js","size":1.5,"gzip":0}]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := store.Parse([]byte(raw))
			assert.ErrorIs(t, err, store.ErrInvalid)
		})
	}
}

func TestSchema_Embedded(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(store.Schema()), `"gzip"`)
}
