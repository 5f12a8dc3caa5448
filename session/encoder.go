package session

import (
	"fmt"

	"github.com/keaganluttrell/lockbox/locker"
)

const encodingVersion = 1

const (
	flagPublicFlow byte = 1 << iota
	flagRFIDAuthenticated
	flagPinVerified
)

// Encode packs st into its stored form: version, flag byte, locker byte.
func Encode(st *State) []byte {
	var flags byte
	if st.PublicFlow {
		flags |= flagPublicFlow
	}
	if st.RFIDAuthenticated {
		flags |= flagRFIDAuthenticated
	}
	if st.PinVerified {
		flags |= flagPinVerified
	}
	return []byte{encodingVersion, flags, byte(st.SelectedLocker)}
}

// Decode unpacks a value produced by Encode.
func Decode(data []byte) (*State, error) {
	if len(data) != 3 {
		return nil, fmt.Errorf("%w: length %d", ErrCorrupt, len(data))
	}
	if data[0] != encodingVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorrupt, data[0])
	}
	flags := data[1]
	if flags&^(flagPublicFlow|flagRFIDAuthenticated|flagPinVerified) != 0 {
		return nil, fmt.Errorf("%w: flags %#x", ErrCorrupt, flags)
	}
	id := locker.ID(data[2])
	if id != 0 && !id.Valid() {
		return nil, fmt.Errorf("%w: locker %d", ErrCorrupt, data[2])
	}
	return &State{
		PublicFlow:        flags&flagPublicFlow != 0,
		RFIDAuthenticated: flags&flagRFIDAuthenticated != 0,
		PinVerified:       flags&flagPinVerified != 0,
		SelectedLocker:    id,
	}, nil
}
