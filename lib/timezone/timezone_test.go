package timezone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNow(t *testing.T) {
	now := Now()
	zone, offset := now.Zone()
	require.Equal(t, "EAT", zone)
	require.Equal(t, 3*60*60, offset)
}
