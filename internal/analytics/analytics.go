package analytics

import (
	"time"

	"github.com/rs/zerolog"
)

// Source identifies events produced by the live-stream configuration dialog.
const Source = "liveStreamingDialog"

// Dialog event tags sent for the start-stream dialog buttons.
const (
	CategoryStart = "start"

	ActionCancel  = "cancel.button"
	ActionConfirm = "confirm.button"
)

type Event struct {
	Category   string            `json:"category"`
	Action     string            `json:"action"`
	Source     string            `json:"source,omitempty"`
	Timestamp  time.Time         `json:"timestamp,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DialogEvent builds the event the dialog emits for a button press,
// e.g. DialogEvent("start", ActionCancel).
func DialogEvent(category, action string) Event {
	return Event{
		Category: category,
		Action:   action,
		Source:   Source,
	}
}

// Sender delivers events to an analytics backend. Implementations must not
// block the caller on backend latency.
type Sender interface {
	Send(event Event)
}

// LogSender writes events to the structured log. It is the fallback sink when
// no analytics backend is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(event Event) {
	s.Logger.Info().
		Str("category", event.Category).
		Str("action", event.Action).
		Str("source", event.Source).
		Msg("analytics event")
}

// MultiSender fans an event out to every configured sink.
type MultiSender []Sender

func (m MultiSender) Send(event Event) {
	for _, s := range m {
		s.Send(event)
	}
}

// Stamp fills the timestamp if the producer left it zero.
func Stamp(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}
