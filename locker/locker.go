// Package locker defines the locker identifiers served by the kiosk.
package locker

import (
	"errors"
	"strconv"
	"strings"
)

// Count is the number of locker slots on the kiosk.
const Count = 16

// ErrInvalidLocker is returned when a locker number is outside 1..Count.
var ErrInvalidLocker = errors.New("invalid locker number")

// ID identifies a locker slot. The zero value means no locker.
type ID int

// Parse reads a decimal locker number from a form value.
func Parse(s string) (ID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidLocker
	}
	id := ID(n)
	if !id.Valid() {
		return 0, ErrInvalidLocker
	}
	return id, nil
}

// Valid reports whether id names one of the kiosk lockers.
func (id ID) Valid() bool {
	return id >= 1 && id <= Count
}

// String returns the decimal form, or "" for the zero value.
func (id ID) String() string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(int(id))
}

// All returns every locker id in display order.
func All() []ID {
	ids := make([]ID, 0, Count)
	for i := 1; i <= Count; i++ {
		ids = append(ids, ID(i))
	}
	return ids
}
