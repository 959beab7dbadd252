// Package model defines the core command-history data types.
package model

import (
	"fmt"
	"strings"
	"unicode"
)

// CommandRecord represents one executed shell command.
// Times are seconds since the Unix epoch.
type CommandRecord struct {
	Input      string  `json:"inp"`
	ReturnCode int     `json:"rtn"`
	StartTime  float64 `json:"tsb"`
	EndTime    float64 `json:"tse"`
}

// TrimmedInput returns Input with trailing whitespace removed. This is the
// form that gets stored and compared for duplicates.
func (r CommandRecord) TrimmedInput() string {
	return TrimInput(r.Input)
}

// Failed reports whether the command exited with a non-zero status.
func (r CommandRecord) Failed() bool {
	return r.ReturnCode != 0
}

// Item is the read projection of a stored record.
type Item struct {
	Input string `json:"inp"`
}

// TrimInput strips trailing whitespace only. The ASCII information
// separators 0x1c-0x1f count as whitespace, as they do for xonsh.
func TrimInput(s string) string {
	return strings.TrimRightFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Control is a history-control flag.
type Control string

const (
	// IgnoreDups skips a command equal to the previously accepted one.
	IgnoreDups Control = "ignoredups"
	// IgnoreErr skips commands with a non-zero return code.
	IgnoreErr Control = "ignoreerr"
)

// ValidControls are the recognized history-control flags.
var ValidControls = map[Control]bool{
	IgnoreDups: true,
	IgnoreErr:  true,
}

// ParseControl converts a raw flag value into a Control.
func ParseControl(s string) (Control, error) {
	c := Control(strings.TrimSpace(s))
	if !ValidControls[c] {
		return "", fmt.Errorf("unknown history control %q (valid: ignoredups, ignoreerr)", s)
	}
	return c, nil
}
