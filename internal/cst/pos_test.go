package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "-", Pos{}.String())
	assert.Equal(t, "f.mx:3:7", NewPos("f.mx", 3, 7, 3, 9).String())
	assert.Equal(t, "3:7", NewPos("", 3, 7, 3, 9).String())
}

func TestPosSites(t *testing.T) {
	t.Parallel()
	outer := NewPos("f.mx", 10, 1, 10, 5)
	inner := NewPos("f.mx", 2, 3, 2, 9).InExpansion(outer)
	node := NewPos("f.mx", 1, 1, 1, 4).InExpansion(inner)

	sites := node.Sites()
	require.Len(t, sites, 2)
	assert.Equal(t, 2, sites[0].Start.Line)
	assert.Equal(t, 10, sites[1].Start.Line)

	assert.Empty(t, outer.Sites())
}

func TestPosTo(t *testing.T) {
	t.Parallel()
	site := NewPos("f.mx", 8, 1, 8, 2)
	a := NewPos("f.mx", 1, 2, 1, 3).InExpansion(site)
	b := NewPos("f.mx", 4, 5, 4, 9)

	span := a.To(b)
	assert.Equal(t, a.Start, span.Start)
	assert.Equal(t, b.End, span.End)
	require.NotNil(t, span.Site)
	assert.Equal(t, site, *span.Site)
}
