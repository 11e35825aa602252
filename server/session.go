package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/zerologr"
	"github.com/jiyeyuran/go-protoo"
	"github.com/rs/zerolog"

	"github.com/confmedia/livestream/internal/analytics"
	"github.com/confmedia/livestream/internal/dialog"
	"github.com/confmedia/livestream/internal/proto"
	"github.com/confmedia/livestream/internal/recording"
	"github.com/confmedia/livestream/internal/youtube"
)

// StreamSession is one conference's live-stream configuration dialog on the
// server side. Clients drive it over REST or over a protoo websocket peer;
// every applied state merge is fanned out to the connected peers.
type StreamSession struct {
	baseNotifier
	logger       zerolog.Logger
	config       *Config
	conferenceId string
	dialog       *dialog.Session
	platform     *youtube.Client
	pusher       *recording.Pusher
	protooRoom   *protoo.Room
	onKeyUsed    func(key string)
	closed       uint32
}

func CreateStreamSession(
	config *Config,
	conferenceId string,
	request proto.OpenSessionRequest,
	previousKey string,
	sender analytics.Sender,
	onKeyUsed func(key string),
) (*StreamSession, error) {
	logger := NewLogger("StreamSession").With().Str("conferenceId", conferenceId).Logger()

	var platform *youtube.Client
	apiState := dialog.GoogleAPINeedsLoading

	if config.YouTube.ClientId != "" {
		platform = youtube.NewClient(youtube.Config{
			APIBaseURL:   config.YouTube.APIBaseURL,
			TokenInfoURL: config.YouTube.TokenInfoURL,
			AccessToken:  request.AccessToken,
			Timeout:      config.YouTube.RequestTimeout,
		}, logger)

		if request.AccessToken != "" {
			apiState = dialog.GoogleAPISignedIn
		} else {
			apiState = dialog.GoogleAPINotSignedIn
		}
	}

	pusher := recording.NewPusher(config.Recording.IngestURL, config.Recording.SourceURL, logger)

	props := dialog.Props{
		Conference:        pusher,
		Analytics:         sender,
		GoogleAPIClientId: config.YouTube.ClientId,
		GoogleAPIState:    apiState,
		ProfileEmail:      request.ProfileEmail,
		PreviousStreamKey: previousKey,
		Translate:         translate,
		Logger:            zerologr.New(&logger),
	}
	if platform != nil {
		props.Platform = platform
	}

	d, err := dialog.New(props)
	if err != nil {
		logger.Err(err).Msg("create dialog session")
		return nil, err
	}

	session := &StreamSession{
		logger:       logger,
		config:       config,
		conferenceId: conferenceId,
		dialog:       d,
		platform:     platform,
		pusher:       pusher,
		protooRoom:   protoo.NewRoom(),
		onKeyUsed:    onKeyUsed,
	}

	d.OnStateChange(func(state dialog.State) {
		for _, peer := range session.protooRoom.Peers() {
			peer.Notify(proto.NotificationStateChanged, session.stateResponse(state))
		}
	})
	d.Mount()

	return session, nil
}

// Reopen applies the credentials of a later open request to an existing
// session, typically one first created through the signaling path without
// any. The platform switches to the new token and the dialog re-runs its
// client bring-up; requests carrying nothing leave the session untouched.
func (s *StreamSession) Reopen(request proto.OpenSessionRequest) {
	if request.AccessToken == "" || s.platform == nil {
		return
	}
	s.logger.Debug().Str("profileEmail", request.ProfileEmail).Msg("reopen() with credentials")

	s.platform.SetAccessToken(request.AccessToken)
	s.dialog.Authorize(dialog.GoogleAPISignedIn, request.ProfileEmail)
}

func (s *StreamSession) Close() {
	if atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		s.logger.Debug().Msg("close()")

		s.dialog.Unmount()

		for _, peer := range s.protooRoom.Peers() {
			peer.Notify(proto.NotificationSessionClosed, H{
				"conferenceId": s.conferenceId,
			})
		}
		s.protooRoom.Close()

		// The rtmp push outlives the dialog on purpose: closing the
		// configuration UI must not stop a stream it started.
		s.notifyClosed()
	}
}

func (s *StreamSession) Closed() bool {
	return atomic.LoadUint32(&s.closed) > 0
}

func (s *StreamSession) State() proto.SessionStateResponse {
	return s.stateResponse(s.dialog.State())
}

func (s *StreamSession) SetStreamKey(key string) {
	s.dialog.SetStreamKey(key)
}

// SubmitDialog runs the submit operation and reports whether the dialog
// closes. A successfully used key is remembered for the next session.
func (s *StreamSession) SubmitDialog() bool {
	shouldClose := s.dialog.Submit()
	if shouldClose {
		if key := s.dialog.State().StreamKey; key != "" && s.onKeyUsed != nil {
			s.onKeyUsed(key)
		}
		s.Close()
	}
	return shouldClose
}

func (s *StreamSession) CancelDialog() bool {
	shouldClose := s.dialog.Cancel()
	if shouldClose {
		s.Close()
	}
	return shouldClose
}

// HandleSignalingConnection attaches a protoo peer to the session. A second
// connection with the same peerId replaces the first.
func (s *StreamSession) HandleSignalingConnection(peerId string, transport protoo.Transport) (err error) {
	existingPeer := s.protooRoom.GetPeer(peerId)
	if existingPeer != nil {
		s.logger.Warn().Str("peerId", peerId).Msg("handleSignalingConnection() | closing previous peer with same peerId")
		existingPeer.Close()
	}

	peer, err := s.protooRoom.CreatePeer(peerId, nil, transport)
	if err != nil {
		s.logger.Err(err).Msg("protooRoom.createPeer() failed")
		return
	}

	peer.On("close", func() {
		if s.Closed() {
			return
		}
		s.logger.Debug().Str("peerId", peerId).Msg(`signaling peer "close" event`)
	})

	peer.On("request", func(request protoo.Message, accept func(data interface{}), reject func(err error)) {
		s.logger.Debug().Str("method", request.Method).Str("peerId", peerId).Msg(`signaling peer "request" event`)

		err := s.handleSignalingRequest(request, accept)
		if err != nil {
			reject(err)
		}
	})

	// Bring the new peer up to date right away.
	peer.Notify(proto.NotificationStateChanged, s.State())

	return
}

func (s *StreamSession) handleSignalingRequest(request protoo.Message, accept func(data interface{})) (err error) {
	switch request.Method {
	case proto.MethodGetState:
		accept(s.State())

	case proto.MethodSetStreamKey:
		var requestData proto.SetStreamKeyRequest
		if err = json.Unmarshal(request.Data, &requestData); err != nil {
			return
		}
		s.SetStreamKey(requestData.StreamKey)
		accept(nil)

	case proto.MethodSelectBroadcast:
		var requestData proto.SelectBroadcastRequest
		if err = json.Unmarshal(request.Data, &requestData); err != nil {
			return
		}
		if s.platform == nil {
			err = fmt.Errorf("broadcast integration is not configured")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.config.YouTube.RequestTimeout)
		defer cancel()

		key, err := s.platform.StreamKey(ctx, requestData.BoundStreamId)
		if err != nil {
			return err
		}
		s.dialog.SelectBroadcast(requestData.BoundStreamId, key)
		accept(nil)

	case proto.MethodLoadBroadcasts:
		s.dialog.LoadBroadcasts()
		accept(nil)

	case proto.MethodSubmit:
		accept(proto.SubmitResponse{Close: s.SubmitDialog()})

	case proto.MethodCancel:
		accept(proto.SubmitResponse{Close: s.CancelDialog()})

	default:
		err = fmt.Errorf(`unknown method "%s"`, request.Method)
	}

	return
}

func (s *StreamSession) stateResponse(state dialog.State) proto.SessionStateResponse {
	errorMessage := ""
	if state.ErrorType != "" {
		errorMessage = s.dialog.Localize("liveStreaming.errors." + state.ErrorType)
	}

	return proto.SessionStateResponse{
		ConferenceId: s.conferenceId,
		Mounted:      s.dialog.Mounted(),
		State:        state,
		ErrorMessage: errorMessage,
	}
}
