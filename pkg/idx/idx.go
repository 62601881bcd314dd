// Package idx generates the sortable identifiers used for users, face
// verification attempts, notices and request ids.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical 26 character form. IDs minted later sort
// after IDs minted earlier, including within one millisecond.
type ID string

// Zero is the empty ID.
const Zero ID = ""

var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an ID stamped with the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns an ID stamped with t.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Parse accepts a canonical ULID, ignoring surrounding space.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return Zero, ErrInvalid
	}
	return ID(u.String()), nil
}

// MustParse is Parse for hard-coded ids. It panics on error.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time is the millisecond timestamp inside id, or the zero time if id is
// not a ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
