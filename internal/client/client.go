// Package client talks to the identity and room collaborators over HTTP.
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

	"github.com/mcoot/handgame/internal/model"
)

// APIError is an error response returned by a collaborator
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// Room is the room collaborator's view of a room
type Room struct {
	RoomID   model.RoomID     `json:"roomId"`
	RoomName string           `json:"roomName"`
	Players  []model.PlayerID `json:"players"`
}

// Health is the body of the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Client calls the identity and room services. Both may live behind the
// same base URL.
type Client struct {
	userURL    string
	roomURL    string
	httpClient *http.Client
}

// New creates a client for the given identity and room service URLs
func New(userURL, roomURL string) *Client {
	return &Client{
		userURL: strings.TrimSuffix(userURL, "/"),
		roomURL: strings.TrimSuffix(roomURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Login obtains the identity for a display name
func (c *Client) Login(ctx context.Context, username string) (model.PlayerIdentity, error) {
	var result model.PlayerIdentity
	req := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPost, c.userURL+"/login", req, &result); err != nil {
		return model.PlayerIdentity{}, err
	}
	return result, nil
}

// GetUser looks up an identity by user ID
func (c *Client) GetUser(ctx context.Context, userID model.PlayerID) (model.PlayerIdentity, error) {
	var result model.PlayerIdentity
	path := c.userURL + "/users/" + url.PathEscape(string(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return model.PlayerIdentity{}, err
	}
	return result, nil
}

// CreateRoom creates a room with the caller as its first player
func (c *Client) CreateRoom(ctx context.Context, userID model.PlayerID, roomName string) (*Room, error) {
	var result Room
	req := map[string]string{"userId": string(userID), "roomName": roomName}
	if err := c.do(ctx, http.MethodPost, c.roomURL+"/create-room", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JoinRoom adds the caller to an existing room
func (c *Client) JoinRoom(ctx context.Context, roomID model.RoomID, userID model.PlayerID) (*Room, error) {
	var result Room
	req := map[string]string{"roomId": string(roomID), "userId": string(userID)}
	if err := c.do(ctx, http.MethodPost, c.roomURL+"/join-room", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRoom returns the players in a room
func (c *Client) GetRoom(ctx context.Context, roomID model.RoomID) (*Room, error) {
	var result Room
	path := c.roomURL + "/rooms/" + url.PathEscape(string(roomID)) + "/players"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks the room service health endpoint
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var result Health
	if err := c.do(ctx, http.MethodGet, c.roomURL+"/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			errResp.Error.Status = resp.StatusCode
			return &errResp.Error
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
