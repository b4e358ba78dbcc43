package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id, code := New()
	require.NotEmpty(t, id)
	require.NotEmpty(t, code)
	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "TMP", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 6)
	assert.Equal(t, strings.ToUpper(parts[2]), parts[2])
}

func TestNew_Unique(t *testing.T) {
	ids := make(map[string]struct{})
	codes := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, code := New()
		_, dup := ids[id]
		require.False(t, dup, id)
		ids[id] = struct{}{}
		codes[code] = struct{}{}
	}
	assert.Len(t, codes, 1000)
}
