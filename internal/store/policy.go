package store

import (
	"github.com/rcliao/xhist/internal/model"
)

// policy holds the history-control flags and the adjacent-dedup state of
// one session.
type policy struct {
	ignoreDups bool
	ignoreErr  bool

	// last is the trimmed input of the most recently accepted record.
	last *string
}

func newPolicy(controls []model.Control) *policy {
	p := &policy{}
	for _, c := range controls {
		switch c {
		case model.IgnoreDups:
			p.ignoreDups = true
		case model.IgnoreErr:
			p.ignoreErr = true
		}
	}
	return p
}

// suppress returns the control that rejects the record, if any.
func (p *policy) suppress(input string, rtn int) (model.Control, bool) {
	if p.ignoreDups && p.last != nil && *p.last == input {
		return model.IgnoreDups, true
	}
	if p.ignoreErr && rtn != 0 {
		return model.IgnoreErr, true
	}
	return "", false
}

// accept records input as the latest stored command.
func (p *policy) accept(input string) {
	p.last = &input
}
