package pagemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapRoundsCapacityToPage(t *testing.T) {
	data, err := Map(100)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, Unmap(data))
	}()

	require.Len(t, data, 100)
	require.Equal(t, 0, cap(data)%PageSize())
	require.GreaterOrEqual(t, cap(data), 100)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: 0x%x", i, b)
		}
	}

	// Mapping must be writable across its full length.
	data[0] = 0xAB
	data[99] = 0xCD
	require.Equal(t, byte(0xAB), data[0])
	require.Equal(t, byte(0xCD), data[99])
}

func TestMapRejectsEmpty(t *testing.T) {
	_, err := Map(0)
	require.Error(t, err)
}

func TestUnmapEmptyIsNoop(t *testing.T) {
	require.NoError(t, Unmap(nil))
}

func TestUnmapReslice(t *testing.T) {
	data, err := Map(3 * PageSize())
	require.NoError(t, err)
	// Callers may hand back a shorter view; Unmap restores the full mapping.
	require.NoError(t, Unmap(data[:10]))
}
