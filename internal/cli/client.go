package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/ws"
)

const requestTimeout = 10 * time.Second

// Client is a WebSocket client for the tracker protocol. It issues one
// request at a time and matches the echoed id on the response, discarding
// any pushes that arrive in between.
type Client struct {
	conn   *websocket.Conn
	nextID int64
}

// wireResponse mirrors ws.Response with the payload left undecoded so
// callers can unmarshal into their own result types.
type wireResponse struct {
	ID    int64           `json:"id"`
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wirePush struct {
	Push model.PushType  `json:"push"`
	Data json.RawMessage `json:"data"`
}

// Dial connects to the tracker's /ws endpoint. The server URL may use an
// http, https, ws or wss scheme.
func Dial(ctx context.Context, serverURL string) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connecting to %s: %w (status %d)", u.String(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connecting to %s: %w", u.String(), err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends a request and blocks until the matching response arrives.
// Pushes received while waiting are dropped. If result is non-nil the
// response payload is unmarshalled into it.
func (c *Client) Do(op ws.Op, payload any, result any) error {
	c.nextID++
	req := ws.Request{ID: c.nextID, Op: op}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		req.Data = data
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("sending %s: %w", op, err)
	}

	deadline := time.Now().Add(requestTimeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading %s response: %w", op, err)
		}
		var resp wireResponse
		if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == 0 {
			// Not a response envelope; a push arrived in between.
			continue
		}
		if resp.ID != req.ID {
			continue
		}
		if !resp.OK {
			return fmt.Errorf("%s: %s", op, resp.Error)
		}
		if result != nil && resp.Data != nil {
			if err := json.Unmarshal(resp.Data, result); err != nil {
				return fmt.Errorf("decoding %s response: %w", op, err)
			}
		}
		return nil
	}
}

// AuthenticateGM authenticates with the GM token and returns the
// unredacted roster snapshot.
func (c *Client) AuthenticateGM(token string) (*ws.RosterSnapshot, error) {
	snap := &ws.RosterSnapshot{}
	err := c.Do(ws.OpAuthenticate, ws.AuthenticateRequest{Token: &token}, snap)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// AuthenticatePlayer joins as a player character, creating it if needed,
// and returns the redacted roster snapshot.
func (c *Client) AuthenticatePlayer(name string) (*ws.RosterSnapshot, error) {
	snap := &ws.RosterSnapshot{}
	err := c.Do(ws.OpAuthenticate, ws.AuthenticateRequest{Name: &name}, snap)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Client) Create(req ws.CreateRequest) (*model.CharacterView, error) {
	view := &model.CharacterView{}
	if err := c.Do(ws.OpCreate, req, view); err != nil {
		return nil, err
	}
	return view, nil
}

func (c *Client) Update(req ws.UpdateRequest) (*model.CharacterView, error) {
	view := &model.CharacterView{}
	if err := c.Do(ws.OpUpdate, req, view); err != nil {
		return nil, err
	}
	return view, nil
}

func (c *Client) Delete(name string) error {
	return c.Do(ws.OpDelete, ws.DeleteRequest{Name: name}, nil)
}

func (c *Client) Roll() (*ws.RosterSnapshot, error) {
	snap := &ws.RosterSnapshot{}
	if err := c.Do(ws.OpRoll, nil, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Client) Refresh() (*ws.RosterSnapshot, error) {
	snap := &ws.RosterSnapshot{}
	if err := c.Do(ws.OpRefresh, nil, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Watch blocks, invoking handle for each push broadcast by the server,
// until the context is cancelled or the connection drops.
func (c *Client) Watch(ctx context.Context, handle func(kind model.PushType, data json.RawMessage)) error {
	// Clear the request deadline; watch runs until cancelled.
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.Close()
		case <-done:
		}
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading push: %w", err)
		}
		var push wirePush
		if err := json.Unmarshal(raw, &push); err != nil || push.Push == "" {
			continue
		}
		handle(push.Push, push.Data)
	}
}

// Health checks the server's /healthz endpoint over plain HTTP.
func Health(ctx context.Context, serverURL string) error {
	u, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/healthz"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("checking health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
