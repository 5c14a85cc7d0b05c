package guess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrier_FiresOnce(t *testing.T) {
	t.Parallel()

	b := NewBarrier("a", "b")

	fired, err := b.Signal("a")
	require.NoError(t, err)
	assert.False(t, fired)

	fired, err = b.Signal("a")
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, 1, b.Count())

	fired, err = b.Signal("b")
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, b.Fired())

	fired, err = b.Signal("b")
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestBarrier_RejectsOutsiders(t *testing.T) {
	t.Parallel()

	b := NewBarrier("a")

	fired, err := b.Signal("z")
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.False(t, fired)
	assert.Zero(t, b.Count())
}

func TestBarrier_EmptyNeverFires(t *testing.T) {
	t.Parallel()

	b := NewBarrier[string]()
	assert.Zero(t, b.Size())
	assert.False(t, b.Fired())
}

func TestBarrier_RemoveDoesNotFire(t *testing.T) {
	t.Parallel()

	b := NewBarrier("a", "b", "c")
	_, _ = b.Signal("a")
	_, _ = b.Signal("b")

	b.Remove("c")
	assert.False(t, b.Fired())
	assert.Equal(t, 2, b.Size())

	// The next signal re-checks against the smaller set.
	fired, err := b.Signal("a")
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestBarrier_Reset(t *testing.T) {
	t.Parallel()

	b := NewBarrier(1, 2)
	_, _ = b.Signal(1)
	_, _ = b.Signal(2)
	require.True(t, b.Fired())

	b.Reset(3)
	assert.False(t, b.Fired())
	assert.Zero(t, b.Count())
	assert.False(t, b.Has(1))
	assert.True(t, b.Has(3))

	fired, err := b.Signal(3)
	require.NoError(t, err)
	assert.True(t, fired)
}
