package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorPreservesEncounterOrder(t *testing.T) {
	c := newCollector()
	c.record("z.txt", "z.txt", "first failure")
	c.record("a.txt", "a.txt", "second failure")
	c.record("m.txt", "m.txt", "third failure")

	errs := c.all()
	require.Len(t, errs, 3)
	assert.Equal(t, "z.txt", errs[0].Path)
	assert.Equal(t, "a.txt", errs[1].Path)
	assert.Equal(t, "m.txt", errs[2].Path)
}

func TestCollectorEmpty(t *testing.T) {
	c := newCollector()
	assert.Empty(t, c.all())
}
