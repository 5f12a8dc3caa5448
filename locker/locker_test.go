package locker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, in := range []string{"1", "7", " 16 ", "09"} {
		id, err := Parse(in)
		require.NoError(t, err, in)
		assert.True(t, id.Valid())
	}

	for _, in := range []string{"", "0", "17", "-3", "seven", "1.5"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidLocker, in)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "", ID(0).String())
	assert.Equal(t, "12", ID(12).String())
}

func TestAll(t *testing.T) {
	ids := All()
	require.Len(t, ids, Count)
	assert.Equal(t, ID(1), ids[0])
	assert.Equal(t, ID(16), ids[15])
}
