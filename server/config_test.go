package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, uint16(4443), config.Https.ListenPort)
	assert.Equal(t, "rtmp://a.rtmp.youtube.com/live2", config.Recording.IngestURL)
	assert.Equal(t, "https://www.googleapis.com/youtube/v3", config.YouTube.APIBaseURL)
	assert.Empty(t, config.YouTube.ClientId)
}

func TestLoadConfigEnvOverridesDefaults(t *testing.T) {
	t.Setenv("LIVESTREAM_HTTPS_LISTENPORT", "9999")
	t.Setenv("LIVESTREAM_YOUTUBE_CLIENTID", "env-client-id")
	t.Setenv("LIVESTREAM_YOUTUBE_REQUESTTIMEOUT", "15s")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, uint16(9999), config.Https.ListenPort)
	assert.Equal(t, "env-client-id", config.YouTube.ClientId)
	assert.Equal(t, 15*time.Second, config.YouTube.RequestTimeout)
	assert.Equal(t, "rtmp://a.rtmp.youtube.com/live2", config.Recording.IngestURL)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{
		"https": {"listenPort": 8443}
	}`), 0o644))

	// The environment wins over keys absent from the file too.
	t.Setenv("LIVESTREAM_RECORDING_INGESTURL", "rtmp://ingest.example.com/live")

	config, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, uint16(8443), config.Https.ListenPort)
	assert.Equal(t, "rtmp://ingest.example.com/live", config.Recording.IngestURL)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{
		"https": {"listenPort": 8443},
		"youtube": {"clientId": "client-id", "requestTimeout": "10s"}
	}`), 0o644))

	config, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, uint16(8443), config.Https.ListenPort)
	assert.Equal(t, "client-id", config.YouTube.ClientId)
	assert.Equal(t, 10*time.Second, config.YouTube.RequestTimeout)

	// Untouched sections keep their defaults.
	assert.Equal(t, "rtmp://a.rtmp.youtube.com/live2", config.Recording.IngestURL)
}
