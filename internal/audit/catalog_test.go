package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The catalog and the constant set must stay in lockstep: a new event
// type without display info would render blank on the activity page.
func TestCatalogCoversAllEventTypes(t *testing.T) {
	t.Parallel()

	require.Len(t, Catalog, len(AllEventTypes))

	for _, et := range AllEventTypes {
		info, ok := Catalog[et]
		require.True(t, ok, "event %q missing from catalog", et)
		assert.NotEmpty(t, info.Icon, "event %q has no icon", et)
		assert.NotEmpty(t, info.Title, "event %q has no title", et)
		assert.NotEmpty(t, info.Message, "event %q has no message", et)
	}
}

func TestAllEventTypesUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[EventType]struct{}, len(AllEventTypes))
	for _, et := range AllEventTypes {
		_, dup := seen[et]
		require.False(t, dup, "event %q listed twice", et)
		seen[et] = struct{}{}
	}
}
