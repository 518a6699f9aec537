package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/handgame/internal/model"
)

func TestLoginPostsUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Alice", body["username"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"u-1","username":"Alice"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.URL)
	id, err := c.Login(context.Background(), "Alice")

	require.NoError(t, err)
	assert.Equal(t, model.PlayerIdentity{UserID: "u-1", DisplayName: "Alice"}, id)
}

func TestRoomOperationsUseRoomURL(t *testing.T) {
	var paths []string
	rooms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"roomId":"ABC12","roomName":"Den","players":["u-1","u-2"]}`))
	}))
	defer rooms.Close()

	c := New("http://127.0.0.1:1", rooms.URL+"/")
	ctx := context.Background()

	created, err := c.CreateRoom(ctx, "u-1", "Den")
	require.NoError(t, err)
	assert.Equal(t, model.RoomID("ABC12"), created.RoomID)

	joined, err := c.JoinRoom(ctx, "ABC12", "u-2")
	require.NoError(t, err)
	assert.Equal(t, []model.PlayerID{"u-1", "u-2"}, joined.Players)

	got, err := c.GetRoom(ctx, "ABC12")
	require.NoError(t, err)
	assert.Equal(t, "Den", got.RoomName)

	assert.Equal(t, []string{
		"POST /create-room",
		"POST /join-room",
		"GET /rooms/ABC12/players",
	}, paths)
}

func TestErrorResponseBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"ROOM_FULL","message":"Room is full"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.URL).JoinRoom(context.Background(), "ABC12", "u-3")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "ROOM_FULL", apiErr.Code)
	assert.Equal(t, "Room is full", err.Error())
}

func TestNonJSONErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.URL).GetUser(context.Background(), "u-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestGetUserEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/a%2Fb", r.URL.RawPath)
		_, _ = w.Write([]byte(`{"userId":"a/b","username":"Slash"}`))
	}))
	defer srv.Close()

	id, err := New(srv.URL, srv.URL).GetUser(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "Slash", id.DisplayName)
}
