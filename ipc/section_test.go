package ipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectionMapSharesBackingArray(t *testing.T) {
	s := NewSection("shared", 8)
	view1 := s.Map()
	view1[0] = 0x42

	view2 := s.Map()
	require.Equal(t, byte(0x42), view2[0], "writers through one mapping are visible to another")
}
