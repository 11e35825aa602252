package youtube_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confmedia/livestream/internal/youtube"
)

func newTestClient(t *testing.T, handler http.Handler) *youtube.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return youtube.NewClient(youtube.Config{
		APIBaseURL:   server.URL,
		TokenInfoURL: server.URL + "/tokeninfo",
		AccessToken:  "test-token",
	}, zerolog.Nop())
}

func TestInitializeClientVerifiesToken(t *testing.T) {
	var gotToken string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tokeninfo", r.URL.Path)
		gotToken = r.URL.Query().Get("access_token")
		w.Write([]byte(`{"aud":"client-id"}`))
	}))

	require.NoError(t, client.InitializeClient(context.Background()))
	assert.Equal(t, "test-token", gotToken)
}

func TestInitializeClientRejectsBadToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid_token"}}`))
	}))

	err := client.InitializeClient(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_token")
}

func TestFetchBroadcasts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/liveBroadcasts", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "true", r.URL.Query().Get("mine"))

		w.Write([]byte(`{
			"items": [
				{"id": "1", "snippet": {"title": "weekly demo"}, "contentDetails": {"boundStreamId": "b1"}},
				{"id": "2", "snippet": {"title": "townhall"}, "contentDetails": {"boundStreamId": "b2"}}
			]
		}`))
	}))

	broadcasts, err := client.FetchBroadcasts(context.Background())
	require.NoError(t, err)
	require.Len(t, broadcasts, 2)
	assert.Equal(t, "1", broadcasts[0].Id)
	assert.Equal(t, "b1", broadcasts[0].BoundStreamId)
	assert.Equal(t, "weekly demo", broadcasts[0].Title)
}

func TestStreamKeyResolvesIngestKey(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/liveStreams", r.URL.Path)
		require.Equal(t, "b1", r.URL.Query().Get("id"))

		w.Write([]byte(`{"items": [{"cdn": {"ingestionInfo": {"streamName": "abcd-1234"}}}]}`))
	}))

	key, err := client.StreamKey(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "abcd-1234", key)
}

func TestStreamKeyUnknownStream(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))

	_, err := client.StreamKey(context.Background(), "missing")
	require.Error(t, err)
}
