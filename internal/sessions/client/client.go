package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const TokenHeader = "X-REPS-TOKEN"

// Client talks to the sessions HTTP API. It satisfies sessions.Store, so a remote
// service can be used anywhere a local store is.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func New(baseURL, apiToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// StatusError is returned when the API answers with an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) Append(ctx context.Context, username string, summary reps.SessionSummary) error {
	_, err := c.Save(ctx, username, summary)
	return err
}

// Save posts the summary to /start_session and returns the service's answer.
func (c *Client) Save(ctx context.Context, username string, summary reps.SessionSummary) (*sessions.SaveResponse, error) {
	username, err := sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(sessions.SaveRequest{
		Username: username,
		Summary:  summary,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start_session", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp := &sessions.SaveResponse{}
	if err := c.do(req, http.StatusCreated, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) List(ctx context.Context, username string) ([]reps.SessionSummary, error) {
	username, err := sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user_sessions/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}

	resp := &sessions.ListResponse{}
	if err := c.do(req, http.StatusOK, resp); err != nil {
		return nil, err
	}
	if resp.Sessions == nil {
		resp.Sessions = []reps.SessionSummary{}
	}
	return resp.Sessions, nil
}

func (c *Client) do(req *http.Request, expectedStatus int, target any) error {
	if c.apiToken != "" {
		req.Header.Set(TokenHeader, c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != expectedStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
