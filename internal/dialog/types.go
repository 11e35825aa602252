package dialog

import (
	"context"
	"errors"

	"github.com/go-logr/logr"

	"github.com/confmedia/livestream/internal/analytics"
)

// Broadcast is a live-broadcast record supplied by the video platform. The
// dialog only reads Id and BoundStreamId; everything else is carried for the
// renderer.
type Broadcast struct {
	Id            string `json:"id,omitempty"`
	BoundStreamId string `json:"boundStreamId,omitempty"`
	Title         string `json:"title,omitempty"`
}

// State is the mutable session state of the dialog. It is only ever changed
// through a token-gated merge.
type State struct {
	Broadcasts            []Broadcast `json:"broadcasts,omitempty"`
	ErrorType             string      `json:"errorType,omitempty"`
	SelectedBoundStreamId string      `json:"selectedBoundStreamId,omitempty"`
	StreamKey             string      `json:"streamKey"`
}

// Error codes merged into State.ErrorType when a platform operation fails.
// They are opaque to this layer; the renderer translates them.
const (
	ErrorGoogleAPI             = "googleApiError"
	ErrorBroadcastsUnavailable = "broadcastsUnavailable"
)

type GoogleAPIState int

const (
	GoogleAPINeedsLoading GoogleAPIState = iota
	GoogleAPILoaded
	GoogleAPISignedIn
	GoogleAPINotSignedIn
	GoogleAPIError
)

type RecordingMode string

const (
	RecordingModeStream RecordingMode = "stream"
	RecordingModeFile   RecordingMode = "file"
)

type RecordingOptions struct {
	BroadcastId string        `json:"broadcastId,omitempty"`
	Mode        RecordingMode `json:"mode"`
	StreamId    string        `json:"streamId"`
}

// Conference is the conference-control capability. StartRecording is
// fire-and-forget: the dialog never consumes its outcome.
type Conference interface {
	StartRecording(options RecordingOptions)
}

// Platform supplies the operations the dialog itself cannot implement:
// bringing up the external API client and fetching the user's broadcasts.
// Both report their results back through the session's token-gated merge.
type Platform interface {
	InitializeClient(ctx context.Context) error
	FetchBroadcasts(ctx context.Context) ([]Broadcast, error)
}

// Translator resolves a label key for the current locale.
type Translator func(key string) string

// Props is the configuration a session is constructed with. It replaces the
// ad-hoc field-by-field projection of an external state store: required
// collaborators are validated once, at construction.
type Props struct {
	Conference        Conference
	Platform          Platform
	Analytics         analytics.Sender
	GoogleAPIClientId string
	GoogleAPIState    GoogleAPIState
	ProfileEmail      string
	PreviousStreamKey string
	Translate         Translator
	Logger            logr.Logger
}

func (p Props) validate() error {
	if p.Conference == nil {
		return errors.New("dialog: Props.Conference is required")
	}
	if p.Analytics == nil {
		return errors.New("dialog: Props.Analytics is required")
	}
	return nil
}
