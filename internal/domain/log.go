package domain

import "time"

// Stream identifies where a console line came from
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
	// StreamSystem carries synthetic notices produced by warden itself
	// (startup, crash and shutdown announcements).
	StreamSystem Stream = "system"
)

// String returns the string representation of Stream
func (s Stream) String() string {
	return string(s)
}

// ConsoleLine is a single line of game server output. Lines are immutable
// once published; Seq is assigned by the broadcaster and defines the global
// delivery order across all subscribers.
type ConsoleLine struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Stream    Stream    `json:"stream"`
	Text      string    `json:"text"`
}

// WireText returns the line as it appears on the streaming protocol.
// stderr lines carry an "ERROR: " prefix; everything else is verbatim.
func (l ConsoleLine) WireText() string {
	if l.Stream == StreamStderr {
		return "ERROR: " + l.Text
	}
	return l.Text
}
