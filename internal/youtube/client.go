// Package youtube implements the platform capabilities of the live-stream
// dialog against the YouTube Data API: OAuth token verification, listing the
// user's live broadcasts, and resolving the ingest key a broadcast's bound
// stream uses.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/confmedia/livestream/internal/dialog"
)

const (
	DefaultAPIBaseURL   = "https://www.googleapis.com/youtube/v3"
	DefaultTokenInfoURL = "https://www.googleapis.com/oauth2/v3/tokeninfo"

	maxBroadcastResults = 50
)

type Config struct {
	APIBaseURL   string
	TokenInfoURL string
	AccessToken  string
	Timeout      time.Duration
}

type Client struct {
	config      Config
	httpClient  http.Client
	logger      zerolog.Logger
	mu          sync.RWMutex
	accessToken string
}

func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.APIBaseURL == "" {
		config.APIBaseURL = DefaultAPIBaseURL
	}
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = DefaultTokenInfoURL
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	return &Client{
		config:      config,
		httpClient:  http.Client{Timeout: config.Timeout},
		logger:      logger,
		accessToken: config.AccessToken,
	}
}

// SetAccessToken replaces the OAuth token, typically after a sign-in that
// happened later than the client's construction.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// InitializeClient verifies the configured access token against the Google
// tokeninfo endpoint. Implements dialog.Platform.
func (c *Client) InitializeClient(ctx context.Context) error {
	c.logger.Debug().Msg("verifying google api access token...")

	query := url.Values{}
	query.Set("access_token", c.token())

	_, err := c.get(ctx, c.config.TokenInfoURL+"?"+query.Encode(), false)
	return err
}

// FetchBroadcasts lists the signed-in user's live broadcasts. Implements
// dialog.Platform.
func (c *Client) FetchBroadcasts(ctx context.Context) ([]dialog.Broadcast, error) {
	c.logger.Debug().Msg("fetching live broadcasts...")

	query := url.Values{}
	query.Set("part", "id,snippet,contentDetails")
	query.Set("mine", "true")
	query.Set("maxResults", fmt.Sprintf("%d", maxBroadcastResults))

	data, err := c.get(ctx, c.config.APIBaseURL+"/liveBroadcasts?"+query.Encode(), true)
	if err != nil {
		return nil, err
	}

	var result struct {
		Items []struct {
			Id      string `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
			ContentDetails struct {
				BoundStreamId string `json:"boundStreamId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.WithStack(err)
	}

	broadcasts := make([]dialog.Broadcast, 0, len(result.Items))
	for _, item := range result.Items {
		broadcasts = append(broadcasts, dialog.Broadcast{
			Id:            item.Id,
			BoundStreamId: item.ContentDetails.BoundStreamId,
			Title:         item.Snippet.Title,
		})
	}
	return broadcasts, nil
}

// StreamKey resolves the ingest key of the live stream a broadcast is bound
// to. Selecting a broadcast in the dialog fills the key field with it.
func (c *Client) StreamKey(ctx context.Context, boundStreamId string) (string, error) {
	query := url.Values{}
	query.Set("part", "cdn")
	query.Set("id", boundStreamId)

	data, err := c.get(ctx, c.config.APIBaseURL+"/liveStreams?"+query.Encode(), true)
	if err != nil {
		return "", err
	}

	var result struct {
		Items []struct {
			Cdn struct {
				IngestionInfo struct {
					StreamName string `json:"streamName"`
				} `json:"ingestionInfo"`
			} `json:"cdn"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", errors.WithStack(err)
	}
	if len(result.Items) == 0 {
		return "", errors.Errorf(`no live stream bound as "%s"`, boundStreamId)
	}
	return result.Items[0].Cdn.IngestionInfo.StreamName, nil
}

func (c *Client) get(ctx context.Context, rawURL string, authorized bool) (result []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+c.token())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer resp.Body.Close()

	result, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if resp.StatusCode >= 400 {
		var errResult struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.Unmarshal(result, &errResult)

		if errResult.Error.Message != "" {
			return nil, errors.Errorf("youtube api: %s", errResult.Error.Message)
		}
		return nil, errors.Errorf("youtube api: status %d", resp.StatusCode)
	}

	return result, nil
}
