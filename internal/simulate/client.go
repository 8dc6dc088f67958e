package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/internal/domain/types"
)

// ErrUnexpectedStatus is returned when the service answers with a status the
// simulator does not expect.
var ErrUnexpectedStatus = errors.New("unexpected status")

type client struct {
	http *http.Client
	base string
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		http: &http.Client{Timeout: timeout},
		base: base,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type statsResponse struct {
	QueueLength int `json:"queueLength"`
}

// postEvent submits e and returns the response status.
func (c *client) postEvent(ctx context.Context, e model.Event) (int, ackResponse, error) { //nolint:gocritic // hugeParam
	var ack ackResponse
	body, err := json.Marshal(e)
	if err != nil {
		return 0, ack, fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/events", bytes.NewReader(body))
	if err != nil {
		return 0, ack, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, ack, fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return resp.StatusCode, ack, fmt.Errorf("decode ack: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, ack, nil
}

// getJSON fetches path and decodes a 200 response into v.
func (c *client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("get %s: %w %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	var v map[string]any
	return c.getJSON(ctx, "/healthz", &v)
}

func (c *client) queueLength(ctx context.Context) (int, error) {
	var s statsResponse
	if err := c.getJSON(ctx, "/stats", &s); err != nil {
		return 0, err
	}
	return s.QueueLength, nil
}

func (c *client) player(ctx context.Context, name string) (types.PlayerStats, error) {
	var s types.PlayerStats
	err := c.getJSON(ctx, "/players/"+url.PathEscape(name), &s)
	return s, err
}

func (c *client) leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	var entries []types.Entry
	err := c.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", limit), &entries)
	return entries, err
}
