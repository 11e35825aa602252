package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jiyeyuran/go-protoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confmedia/livestream/internal/analytics"
	"github.com/confmedia/livestream/internal/dialog"
	"github.com/confmedia/livestream/internal/proto"
)

// fakeYouTubeAPI accepts the token "good-token" and serves a single
// broadcast, recording the Authorization header of the last listing call.
type fakeYouTubeAPI struct {
	server *httptest.Server
	mu     sync.Mutex
	bearer string
}

func startYouTubeAPI(t *testing.T) *fakeYouTubeAPI {
	t.Helper()

	api := &fakeYouTubeAPI{}
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/tokeninfo", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"invalid token"}}`)
			return
		}
		fmt.Fprint(w, `{"aud":"client-id"}`)
	})
	mux.HandleFunc("/youtube/v3/liveBroadcasts", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.bearer = r.Header.Get("Authorization")
		api.mu.Unlock()
		fmt.Fprint(w, `{"items":[{"id":"1","snippet":{"title":"event"},"contentDetails":{"boundStreamId":"b1"}}]}`)
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

func (f *fakeYouTubeAPI) lastBearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bearer
}

func newTestConfig(api *fakeYouTubeAPI) *Config {
	config := DefaultConfig
	if api != nil {
		config.YouTube.ClientId = "client-id"
		config.YouTube.APIBaseURL = api.server.URL + "/youtube/v3"
		config.YouTube.TokenInfoURL = api.server.URL + "/oauth2/tokeninfo"
	} else {
		config.YouTube.ClientId = ""
	}
	config.YouTube.RequestTimeout = time.Second
	return &config
}

func newTestSession(t *testing.T, config *Config, request proto.OpenSessionRequest) *StreamSession {
	t.Helper()

	session, err := CreateStreamSession(config, "conference-1", request, "", analytics.MultiSender{}, nil)
	require.NoError(t, err)
	t.Cleanup(session.Close)

	return session
}

func TestReopenSignsInSignalingFirstSession(t *testing.T) {
	api := startYouTubeAPI(t)
	session := newTestSession(t, newTestConfig(api), proto.OpenSessionRequest{})

	// Created without credentials, the client bring-up fails.
	require.Eventually(t, func() bool {
		return session.State().State.ErrorType == dialog.ErrorGoogleAPI
	}, time.Second, 10*time.Millisecond)

	session.Reopen(proto.OpenSessionRequest{
		AccessToken:  "good-token",
		ProfileEmail: "user@example.com",
	})

	require.Eventually(t, func() bool {
		state := session.State().State
		return len(state.Broadcasts) == 1 && state.ErrorType == ""
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Bearer good-token", api.lastBearer())
}

func TestReopenWithoutCredentialsIsNoop(t *testing.T) {
	api := startYouTubeAPI(t)
	session := newTestSession(t, newTestConfig(api), proto.OpenSessionRequest{})

	session.Reopen(proto.OpenSessionRequest{})

	assert.Never(t, func() bool {
		return len(session.State().State.Broadcasts) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSignalingRequestGetStateAndSetStreamKey(t *testing.T) {
	session := newTestSession(t, newTestConfig(nil), proto.OpenSessionRequest{})

	err := session.handleSignalingRequest(protoo.Message{
		Method: proto.MethodSetStreamKey,
		Data:   json.RawMessage(`{"streamKey":"abc"}`),
	}, func(data interface{}) {})
	require.NoError(t, err)

	var accepted interface{}
	err = session.handleSignalingRequest(protoo.Message{
		Method: proto.MethodGetState,
	}, func(data interface{}) { accepted = data })
	require.NoError(t, err)

	state, ok := accepted.(proto.SessionStateResponse)
	require.True(t, ok)
	assert.True(t, state.Mounted)
	assert.Equal(t, "abc", state.State.StreamKey)
}

func TestSignalingRequestSelectBroadcastNeedsPlatform(t *testing.T) {
	session := newTestSession(t, newTestConfig(nil), proto.OpenSessionRequest{})

	err := session.handleSignalingRequest(protoo.Message{
		Method: proto.MethodSelectBroadcast,
		Data:   json.RawMessage(`{"boundStreamId":"b1"}`),
	}, func(data interface{}) {})
	require.Error(t, err)
}

func TestSignalingRequestCancelClosesSession(t *testing.T) {
	session := newTestSession(t, newTestConfig(nil), proto.OpenSessionRequest{})

	var accepted interface{}
	err := session.handleSignalingRequest(protoo.Message{
		Method: proto.MethodCancel,
	}, func(data interface{}) { accepted = data })
	require.NoError(t, err)

	assert.Equal(t, proto.SubmitResponse{Close: true}, accepted)
	assert.True(t, session.Closed())
}

func TestSignalingRequestUnknownMethod(t *testing.T) {
	session := newTestSession(t, newTestConfig(nil), proto.OpenSessionRequest{})

	err := session.handleSignalingRequest(protoo.Message{
		Method: "bogus",
	}, func(data interface{}) {})
	require.Error(t, err)
}
