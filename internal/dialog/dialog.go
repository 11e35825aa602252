// Package dialog implements the live-stream configuration session: the state
// and lifecycle behind the "start live stream" dialog of a conference client.
// Platform specifics (Google API bring-up, broadcast listing) and the actual
// recording backend are injected capabilities; this layer owns the session
// state, the submit/cancel semantics and the teardown discipline.
package dialog

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/confmedia/livestream/internal/analytics"
)

// Token is issued by Mount and invalidated by Unmount. Every deferred state
// merge carries the token it was started under, so a completion arriving
// after teardown is provably ignored instead of racing a shared flag.
type Token struct {
	gen uint64
	ctx context.Context
}

// Context is cancelled when the session unmounts. Platform operations should
// run under it.
func (t Token) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

type Session struct {
	mu       sync.Mutex
	props    Props
	state    State
	gen      uint64
	mounted  bool
	ctx      context.Context
	cancel   context.CancelFunc
	onChange func(State)
	logger   logr.Logger
}

func New(props Props) (*Session, error) {
	if err := props.validate(); err != nil {
		return nil, err
	}
	if props.Logger.GetSink() == nil {
		props.Logger = logr.Discard()
	}
	return &Session{
		props:  props,
		logger: props.Logger,
	}, nil
}

// OnStateChange registers the renderer callback invoked after every applied
// merge. Must be set before Mount.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Mount attaches the session and returns its lifecycle token. When a Google
// API client id is configured the external client is brought up
// asynchronously; its completion reports back through Merge and is dropped
// if the session unmounted in the meantime. Mounting an already mounted
// session is a no-op and returns the current token.
func (s *Session) Mount() Token {
	s.mu.Lock()
	if s.mounted {
		tok := Token{gen: s.gen, ctx: s.tokenCtx()}
		s.mu.Unlock()
		return tok
	}
	s.mounted = true
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	tok := Token{gen: s.gen, ctx: s.ctx}
	clientId := s.props.GoogleAPIClientId
	platform := s.props.Platform
	s.mu.Unlock()

	if clientId != "" && platform != nil {
		go s.initializeClient(tok)
	}
	return tok
}

// Unmount detaches the session. The lifecycle token is invalidated first, so
// in-flight platform completions become no-ops; their underlying requests are
// cancelled through the token context but not waited for.
func (s *Session) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.gen++
	cancel := s.cancel
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Merge applies fn to the session state if tok is still the live token.
// It reports whether the merge was applied. This is the only way state is
// mutated; stale tokens make it a silent no-op.
func (s *Session) Merge(tok Token, fn func(*State)) bool {
	s.mu.Lock()
	if !s.mounted || tok.gen != s.gen {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	snapshot := s.snapshotLocked()
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
	return true
}

// SetStreamKey records a manually typed stream key. Typing a key always
// drops the broadcast selection, since the key no longer corresponds to it.
func (s *Session) SetStreamKey(key string) {
	s.Merge(s.token(), func(st *State) {
		st.StreamKey = key
		st.SelectedBoundStreamId = ""
	})
}

// SelectBroadcast records the broadcast the user picked from the fetched
// list, together with the ingest key of its bound stream.
func (s *Session) SelectBroadcast(boundStreamId, streamKey string) {
	s.Merge(s.token(), func(st *State) {
		st.SelectedBoundStreamId = boundStreamId
		st.StreamKey = streamKey
	})
}

// LoadBroadcasts triggers an asynchronous refresh of the broadcast list,
// typically after the user signed in. Results land via Merge.
func (s *Session) LoadBroadcasts() {
	s.mu.Lock()
	if !s.mounted || s.props.Platform == nil {
		s.mu.Unlock()
		return
	}
	tok := Token{gen: s.gen, ctx: s.tokenCtx()}
	s.mu.Unlock()

	go s.fetchBroadcasts(tok)
}

// Authorize records a platform sign-in that happened after construction,
// typically when the open request finally carries credentials for a session
// first created without any. A mounted signed-in session re-runs the client
// bring-up, so the broadcast list loads under the new credentials.
func (s *Session) Authorize(apiState GoogleAPIState, profileEmail string) {
	s.mu.Lock()
	s.props.GoogleAPIState = apiState
	if profileEmail != "" {
		s.props.ProfileEmail = profileEmail
	}
	mounted := s.mounted
	clientId := s.props.GoogleAPIClientId
	platform := s.props.Platform
	tok := Token{gen: s.gen, ctx: s.tokenCtx()}
	s.mu.Unlock()

	if mounted && clientId != "" && platform != nil {
		go s.initializeClient(tok)
	}
}

// Localize resolves a label key through the configured translator. Without
// one the key itself is returned.
func (s *Session) Localize(key string) string {
	s.mu.Lock()
	translate := s.props.Translate
	s.mu.Unlock()

	if translate == nil {
		return key
	}
	return translate(key)
}

// Cancel reports the dismissal and tells the caller to close the dialog.
// It always succeeds.
func (s *Session) Cancel() bool {
	s.props.Analytics.Send(analytics.DialogEvent(analytics.CategoryStart, analytics.ActionCancel))
	return true
}

// Submit starts the live stream with the effective stream key: the typed key,
// falling back to the previously used one. Without a key the dialog stays
// open and nothing is emitted. A selected broadcast is resolved to its id by
// first match on the bound stream id; no match still submits, with an empty
// broadcast id. The start-recording call is fire-and-forget.
func (s *Session) Submit() bool {
	s.mu.Lock()
	key := s.state.StreamKey
	if key == "" {
		key = s.props.PreviousStreamKey
	}
	if key == "" {
		s.mu.Unlock()
		return false
	}

	broadcastId := ""
	if selected := s.state.SelectedBoundStreamId; selected != "" {
		for _, b := range s.state.Broadcasts {
			if b.BoundStreamId == selected {
				broadcastId = b.Id
				break
			}
		}
	}
	conference := s.props.Conference
	s.mu.Unlock()

	s.props.Analytics.Send(analytics.DialogEvent(analytics.CategoryStart, analytics.ActionConfirm))
	conference.StartRecording(RecordingOptions{
		BroadcastId: broadcastId,
		Mode:        RecordingModeStream,
		StreamId:    key,
	})
	return true
}

func (s *Session) initializeClient(tok Token) {
	if err := s.props.Platform.InitializeClient(tok.Context()); err != nil {
		s.logger.Error(err, "google api client initialization failed")
		s.Merge(tok, func(st *State) {
			st.ErrorType = ErrorGoogleAPI
		})
		return
	}
	// A client that is already signed in can list broadcasts right away.
	s.mu.Lock()
	signedIn := s.props.GoogleAPIState == GoogleAPISignedIn
	s.mu.Unlock()

	if signedIn {
		s.fetchBroadcasts(tok)
	}
}

func (s *Session) fetchBroadcasts(tok Token) {
	broadcasts, err := s.props.Platform.FetchBroadcasts(tok.Context())
	if err != nil {
		s.logger.Error(err, "fetch broadcasts failed")
		s.Merge(tok, func(st *State) {
			st.ErrorType = ErrorBroadcastsUnavailable
		})
		return
	}
	s.Merge(tok, func(st *State) {
		st.Broadcasts = broadcasts
		st.ErrorType = ""
	})
}

func (s *Session) token() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Token{gen: s.gen, ctx: s.tokenCtx()}
}

func (s *Session) tokenCtx() context.Context {
	// mu must be held.
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Session) snapshotLocked() State {
	snapshot := s.state
	if len(s.state.Broadcasts) > 0 {
		snapshot.Broadcasts = append([]Broadcast(nil), s.state.Broadcasts...)
	}
	return snapshot
}
