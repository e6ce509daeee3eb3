package path_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-forms/pkg/path"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want path.Path
	}{
		{name: "empty", in: "", want: nil},
		{name: "blank", in: "  ", want: nil},
		{name: "single", in: "name", want: path.Path{"name"}},
		{name: "dotted", in: "owner.email", want: path.Path{"owner", "email"}},
		{name: "brackets", in: "owner.emails[0].address", want: path.Path{"owner", "emails", "0", "address"}},
		{name: "stray dots", in: ".a..b.", want: path.Path{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, path.Parse(tt.in))
		})
	}
}

func TestGet(t *testing.T) {
	store := map[string]any{
		"name": "Ada",
		"nil":  nil,
		"owner": map[string]any{
			"email": "ada@example.com",
			"tags":  []any{"a", "b"},
		},
		"flat": map[string]string{"k": "v"},
		"rows": []map[string]any{{"id": 1}},
	}

	value, ok := path.Get(store, path.Parse("owner.email"))
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", value)

	value, ok = path.Get(store, path.Parse("owner.tags.1"))
	require.True(t, ok)
	assert.Equal(t, "b", value)

	value, ok = path.Get(store, path.Parse("flat.k"))
	require.True(t, ok)
	assert.Equal(t, "v", value)

	value, ok = path.Get(store, path.Parse("rows[0].id"))
	require.True(t, ok)
	assert.Equal(t, 1, value)

	value, ok = path.Get(store, path.Parse("nil"))
	require.True(t, ok, "present nil values are defined")
	assert.Nil(t, value)

	for _, missing := range []string{"", "missing", "owner.missing.deep", "owner.tags.9", "owner.tags.x", "name.length"} {
		_, ok := path.Get(store, path.Parse(missing))
		assert.False(t, ok, "expected %q to be undefined", missing)
	}

	_, ok = path.Get(nil, path.Parse("a"))
	assert.False(t, ok)
}

func TestSetDoesNotMutateInput(t *testing.T) {
	original := map[string]any{
		"owner": map[string]any{"email": "old@example.com"},
		"other": map[string]any{"keep": true},
	}

	updated := path.Set(original, path.Parse("owner.email"), "new@example.com")

	assert.Equal(t, "old@example.com", original["owner"].(map[string]any)["email"])
	got, ok := path.Get(updated, path.Parse("owner.email"))
	require.True(t, ok)
	assert.Equal(t, "new@example.com", got)

	// untouched branches are shared
	assert.Equal(t, original["other"], updated["other"])
}

func TestSetCreatesIntermediates(t *testing.T) {
	updated := path.Set(nil, path.Parse("a.b.c"), 3)
	got, ok := path.Get(updated, path.Parse("a.b.c"))
	require.True(t, ok)
	assert.Equal(t, 3, got)

	updated = path.Set(map[string]any{"a": "scalar"}, path.Parse("a.b"), 1)
	got, ok = path.Get(updated, path.Parse("a.b"))
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestSetSliceIndex(t *testing.T) {
	original := map[string]any{"tags": []any{"a", "b"}}

	updated := path.Set(original, path.Parse("tags.1"), "z")
	assert.Equal(t, []any{"a", "b"}, original["tags"])
	assert.Equal(t, []any{"a", "z"}, updated["tags"])

	grown := path.Set(original, path.Parse("tags.3"), "d")
	assert.Equal(t, []any{"a", "b", nil, "d"}, grown["tags"])
}

func TestDelete(t *testing.T) {
	original := map[string]any{
		"owner": map[string]any{"email": "a", "name": "b"},
		"tags":  []any{"x", "y"},
	}

	updated := path.Delete(original, path.Parse("owner.email"))
	_, ok := path.Get(updated, path.Parse("owner.email"))
	assert.False(t, ok)
	_, ok = path.Get(original, path.Parse("owner.email"))
	assert.True(t, ok)

	updated = path.Delete(original, path.Parse("tags.0"))
	assert.Equal(t, []any{"y"}, updated["tags"])
	assert.Equal(t, []any{"x", "y"}, original["tags"])

	unchanged := path.Delete(original, path.Parse("missing.key"))
	assert.Equal(t, original, unchanged)
}
