package proto

import "github.com/confmedia/livestream/internal/dialog"

// Signaling methods exchanged over the websocket channel.
const (
	MethodGetState        = "getState"
	MethodSetStreamKey    = "setStreamKey"
	MethodSelectBroadcast = "selectBroadcast"
	MethodLoadBroadcasts  = "loadBroadcasts"
	MethodSubmit          = "submit"
	MethodCancel          = "cancel"

	NotificationStateChanged  = "stateChanged"
	NotificationSessionClosed = "sessionClosed"
)

type OpenSessionRequest struct {
	ProfileEmail string `json:"profileEmail,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
}

type SessionStateResponse struct {
	ConferenceId string       `json:"conferenceId,omitempty"`
	Mounted      bool         `json:"mounted"`
	State        dialog.State `json:"state"`
	// ErrorMessage is State.ErrorType resolved to a human readable label.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type SetStreamKeyRequest struct {
	StreamKey string `json:"streamKey"`
}

type SelectBroadcastRequest struct {
	BoundStreamId string `json:"boundStreamId,omitempty"`
}

type SubmitResponse struct {
	// Close tells the client whether to dismiss the dialog. Submitting
	// without a stream key keeps it open.
	Close bool `json:"close"`
}
