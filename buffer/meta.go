package buffer

import (
	"github.com/xaionaro-go/typing"
)

// Meta is the metadata attached to a buffer handle and copied on Clone.
type Meta struct {
	// Time is the presentation timestamp in the session's integer time units.
	Time typing.Optional[int64]
}

func (m *Meta) Clear() {
	*m = Meta{}
}

func (m *Meta) SetTime(t int64) {
	m.Time = typing.Opt(t)
}

// FindTime returns the attached time, if any.
func (m *Meta) FindTime() (int64, bool) {
	if !m.Time.IsSet() {
		return 0, false
	}
	return m.Time.Get(), true
}
