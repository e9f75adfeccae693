package sizing

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestAddInt64(t *testing.T) {
	t.Parallel()

	sum, ok := AddInt64(10, 20)
	assert.True(t, ok)
	assert.Equal(t, int64(30), sum)

	_, ok = AddInt64(math.MaxInt64, 1)
	assert.False(t, ok)

	_, ok = AddInt64(-1, 1)
	assert.False(t, ok)

	sum, ok = AddInt64(math.MaxInt64-1, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), sum)
}

func TestToInt(t *testing.T) {
	t.Parallel()

	n, err := ToInt(42, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ToInt(-1, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadAllWithLimit(bytes.NewReader([]byte("hello")), 5, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = ReadAllWithLimit(bytes.NewReader([]byte("hello!")), 5, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}
