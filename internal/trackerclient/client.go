// Package trackerclient calls the tracker subscription API.
package trackerclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/Domenick1991/flightbot/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Track subscribes user to fltnr. The returned message is meant for the
// user; it is set for refused requests too.
func (c *Client) Track(ctx context.Context, req domain.SubscribeRequest) (domain.StatusResponse, error) {
	payload := domain.TrackPayload{FlightNumber: req.FlightNumber, User: &req.UserID}
	if req.IsChannel() {
		payload.Chan = &req.ChannelID
		payload.Notify = &req.DisplayName
	}
	return c.post(ctx, "track", payload)
}

func (c *Client) Untrack(ctx context.Context, req domain.SubscribeRequest) (domain.StatusResponse, error) {
	payload := domain.TrackPayload{FlightNumber: req.FlightNumber, User: &req.UserID}
	if req.IsChannel() {
		payload.Chan = &req.ChannelID
	}
	return c.post(ctx, "untrack", payload)
}

func (c *Client) post(ctx context.Context, path string, payload domain.TrackPayload) (domain.StatusResponse, error) {
	var out domain.StatusResponse

	body, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s response (%s): %w", path, res.Status, err)
	}
	return out, nil
}
