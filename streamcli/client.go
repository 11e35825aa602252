package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/confmedia/livestream/internal/proto"
	"github.com/confmedia/livestream/internal/styles"
)

type Client struct {
	context      context.Context
	cancel       func()
	serverURL    string
	conferenceID string
	streamKey    string
	accessToken  string
	email        string
	dismiss      bool
	clientID     string
	httpClient   http.Client
	logger       zerolog.Logger
}

func NewClient(opts *Options) *Client {
	clientID := uuid.NewV4().String()
	context, cancel := context.WithCancel(context.Background())

	return &Client{
		context:      context,
		cancel:       cancel,
		serverURL:    opts.ServerURL,
		conferenceID: opts.ConferenceID,
		streamKey:    opts.StreamKey,
		accessToken:  opts.AccessToken,
		email:        opts.Email,
		dismiss:      opts.Cancel,
		clientID:     clientID,
		httpClient: http.Client{
			Timeout: 3 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !opts.VerifyCert},
			},
		},
		logger: zerolog.New(os.Stderr).With().Timestamp().
			Str("conference", opts.ConferenceID).
			Str("client", clientID).
			Logger().Level(zerolog.InfoLevel),
	}
}

func (c *Client) Run() (err error) {
	defer c.cancel()

	state, err := c.openSession()
	if err != nil {
		return
	}
	fmt.Println(renderState(state))

	if c.streamKey != "" {
		if state, err = c.setStreamKey(c.streamKey); err != nil {
			return
		}
		fmt.Println(renderState(state))
	}

	if c.dismiss {
		return c.cancelDialog()
	}
	return c.submit()
}

func (c *Client) openSession() (state proto.SessionStateResponse, err error) {
	c.logger.Info().Msg("opening live-stream session...")

	request := proto.OpenSessionRequest{
		ProfileEmail: c.email,
		AccessToken:  c.accessToken,
	}
	data, err := c.request(http.MethodPost, fmt.Sprintf("/conferences/%s/livestream", c.conferenceID), request)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &state)

	return
}

func (c *Client) setStreamKey(key string) (state proto.SessionStateResponse, err error) {
	c.logger.Info().Msg("typing stream key...")

	data, err := c.request(
		http.MethodPut,
		fmt.Sprintf("/conferences/%s/livestream/streamkey", c.conferenceID),
		proto.SetStreamKeyRequest{StreamKey: key})
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &state)

	return
}

func (c *Client) submit() (err error) {
	c.logger.Info().Msg("submitting...")

	data, err := c.request(http.MethodPost, fmt.Sprintf("/conferences/%s/livestream/submit", c.conferenceID), nil)
	if err != nil {
		return
	}

	var result proto.SubmitResponse
	if err = json.Unmarshal(data, &result); err != nil {
		return errors.WithStack(err)
	}

	if !result.Close {
		fmt.Println(styles.Table.Error.Render("no stream key available, dialog stays open"))
		return nil
	}

	fmt.Println(styles.Table.HighDef.Render("LIVE") + " stream starting")
	return nil
}

func (c *Client) cancelDialog() (err error) {
	c.logger.Info().Msg("dismissing the dialog...")

	_, err = c.request(http.MethodPost, fmt.Sprintf("/conferences/%s/livestream/cancel", c.conferenceID), nil)
	return
}

func renderState(state proto.SessionStateResponse) string {
	var b strings.Builder

	b.WriteString(styles.Table.DialogTitle.Render("Start live stream"))
	b.WriteString("\n")

	if state.State.ErrorType != "" {
		message := state.ErrorMessage
		if message == "" {
			message = state.State.ErrorType
		}
		b.WriteString(styles.Table.Error.Render(message))
		b.WriteString("\n")
	}

	key := state.State.StreamKey
	if key == "" {
		key = "<none>"
	}
	b.WriteString("stream key: ")
	b.WriteString(styles.Table.StreamKey.Render(key))
	b.WriteString("\n")

	for _, broadcast := range state.State.Broadcasts {
		line := fmt.Sprintf("  %s (%s)", broadcast.Title, broadcast.Id)
		if broadcast.BoundStreamId == state.State.SelectedBoundStreamId && broadcast.BoundStreamId != "" {
			line += " *"
		}
		b.WriteString(styles.Table.Help.Render(line))
		b.WriteString("\n")
	}

	return styles.Table.DialogBox.Render(b.String())
}

func (c *Client) request(method string, url string, data interface{}) (result []byte, err error) {
	var body io.Reader

	if data != nil {
		data, _ := json.Marshal(data)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.context, method, c.serverURL+url, body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	defer resp.Body.Close()

	result, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if resp.StatusCode >= 400 {
		var errResult struct {
			Error string
		}
		json.Unmarshal(result, &errResult)

		if errResult.Error == "" {
			errResult.Error = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		err = errors.WithStack(errors.New(errResult.Error))
	}

	return
}
