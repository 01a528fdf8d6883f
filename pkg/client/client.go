package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/csvassist/pkg/session"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// APIClient talks to the chat backend over HTTP.
type APIClient struct {
	httpClient *http.Client
	server     string
	timeout    time.Duration
}

var _ session.Assistant = (*APIClient)(nil)

type Option func(*APIClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *APIClient) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout. The timeout is
// applied to a copy of the http.Client, so a client passed with
// WithHTTPClient is never modified, whatever the option order.
func WithTimeout(timeout time.Duration) Option {
	return func(a *APIClient) {
		a.timeout = timeout
	}
}

// NewAPIClient creates a client for the backend at server.
func NewAPIClient(server string, options ...Option) (*APIClient, error) {
	normalized, err := normalizeServerURL(server)
	if err != nil {
		return nil, err
	}

	c := &APIClient{
		httpClient: &http.Client{},
		server:     normalized,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

func (c *APIClient) Server() string {
	return c.server
}

// normalizeServerURL adds a missing scheme and strips trailing slashes. A
// path prefix is kept so the backend can be mounted below the root.
func normalizeServerURL(server string) (string, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return "", errors.New("server URL is empty")
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil {
		return "", errors.Wrapf(err, "invalid server URL %q", server)
	}
	if u.Host == "" {
		return "", errors.Errorf("invalid server URL %q: missing host", server)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("invalid server URL %q: unsupported scheme %s", server, u.Scheme)
	}

	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimRight(u.Path, "/")), nil
}

// Chat posts message with the preceding history and returns the reply.
func (c *APIClient) Chat(ctx context.Context, message string, history []session.Turn) (string, error) {
	if history == nil {
		history = []session.Turn{}
	}
	body, err := json.Marshal(ChatRequest{Message: message, History: history})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+endpointChat, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create chat request")
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("url", req.URL.String()).
		Int("history", len(history)).
		Msg("sending chat message")

	return c.do(req)
}

// Upload posts file as multipart form data under the "file" field.
func (c *APIClient) Upload(ctx context.Context, file *session.File) (string, error) {
	if file == nil || file.Content == nil {
		return "", errors.New("no file to upload")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadFieldName, file.Name)
	if err != nil {
		return "", errors.Wrap(err, "failed to create form file")
	}
	n, err := io.Copy(part, file.Content)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", file.Name)
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finish multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+endpointUpload, &buf)
	if err != nil {
		return "", errors.Wrap(err, "failed to create upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Debug().
		Str("url", req.URL.String()).
		Str("file", file.Name).
		Int64("bytes", n).
		Msg("uploading file")

	return c.do(req)
}

func (c *APIClient) do(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}
	if reply.Response == nil {
		return "", errors.New("response field missing from reply")
	}
	return *reply.Response, nil
}
