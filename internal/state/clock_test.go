package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	var c Clock
	require.Equal(t, uint64(1), c.Tick())
	c.Witness(7)
	require.Equal(t, uint64(7), c.Now())
	c.Witness(3)
	require.Equal(t, uint64(8), c.Tick(), "older stamps never move the clock back")
}
