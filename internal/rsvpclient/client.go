package rsvpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rsvp-demo/project/internal/contracts"
)

const (
	DefaultTimeout        = 5 * time.Second
	NetworkErrorMessage   = "Network error. Please try again."
	GenericFailureMessage = "Failed to submit RSVP"
	maxResponseBodyBytes  = 1 << 20
)

var (
	ErrNetwork       = errors.New("network error")
	ErrEventNotFound = errors.New("event not found")
)

// APIError is a structured rejection returned by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rsvp api status %d: %s", e.Status, e.Message)
}

// UserMessage is the text shown to the user for a failed submit.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNetwork):
		return NetworkErrorMessage
	default:
		return GenericFailureMessage
	}
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Submit posts one RSVP. Transport failures, timeouts and non-JSON responses
// are reported as ErrNetwork; server rejections as *APIError.
func (c *Client) Submit(ctx context.Context, eventID string, children int, acknowledgement bool) (contracts.Submission, error) {
	body, err := json.Marshal(contracts.RsvpRequest{
		EventID:         eventID,
		ChildrenCount:   children,
		Acknowledgement: acknowledgement,
	})
	if err != nil {
		return contracts.Submission{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/rsvp", bytes.NewReader(body))
	if err != nil {
		return contracts.Submission{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return contracts.Submission{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes))
	if err != nil {
		return contracts.Submission{}, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}
	var data contracts.RsvpResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return contracts.Submission{}, fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 || !data.OK || data.Saved == nil {
		msg := strings.TrimSpace(data.Error)
		if msg == "" {
			msg = GenericFailureMessage
		}
		return contracts.Submission{}, &APIError{Status: res.StatusCode, Message: msg}
	}
	return *data.Saved, nil
}

// Event fetches one event from the lookup endpoint.
func (c *Client) Event(ctx context.Context, id string) (contracts.EventData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/events/"+url.PathEscape(id), nil)
	if err != nil {
		return contracts.EventData{}, err
	}
	req.Header.Set("Cache-Control", "no-store")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return contracts.EventData{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return contracts.EventData{}, ErrEventNotFound
	}
	if res.StatusCode != http.StatusOK {
		return contracts.EventData{}, &APIError{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	}
	var ev contracts.EventData
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBodyBytes)).Decode(&ev); err != nil {
		return contracts.EventData{}, fmt.Errorf("%w: decode event: %v", ErrNetwork, err)
	}
	return ev, nil
}
