package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	st := &State{PublicFlow: true, RFIDAuthenticated: true, SelectedLocker: 16}
	got, err := Decode(Encode(st))
	require.NoError(t, err)
	assert.Equal(t, *st, *got)

	empty, err := Decode(Encode(&State{}))
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestDecodeRejectsCorrupt(t *testing.T) {
	cases := map[string][]byte{
		"short":   {encodingVersion, 0},
		"version": {9, 0, 0},
		"flags":   {encodingVersion, 0x80, 0},
		"locker":  {encodingVersion, 0, 17},
	}
	for name, data := range cases {
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}
}
