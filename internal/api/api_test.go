package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/handgame/internal/api"
	"github.com/mcoot/handgame/internal/api/apierr"
	"github.com/mcoot/handgame/internal/api/response"
	"github.com/mcoot/handgame/internal/factory"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		IdentityService: app.IdentityService,
		RoomController:  app.RoomController,
		HubManager:      app.HubManager,
		Registry:        app.Registry,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) login(t *testing.T, name string) response.Identity {
	t.Helper()
	rr := ts.request(http.MethodPost, "/login", map[string]string{"username": name})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Identity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) createRoom(t *testing.T, userID string) response.Room {
	t.Helper()
	rr := ts.request(http.MethodPost, "/create-room", map[string]string{"userId": userID, "roomName": "Finals"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	first := ts.login(t, "Alice")
	assert.Equal(t, "Alice", first.Username)
	assert.NotEmpty(t, first.UserID)

	// Same name, same identity
	second := ts.login(t, "Alice")
	assert.Equal(t, first.UserID, second.UserID)

	rr := ts.request(http.MethodGet, "/users/"+first.UserID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"Alice"`)
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/login", map[string]string{"username": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidDisplayName, decodeError(t, rr).Code)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rec).Code)
}

func TestGetUnknownUser(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/users/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, decodeError(t, rr).Code)
}

func TestCreateJoinAndGetRoom(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "Alice")
	bob := ts.login(t, "Bob")

	room := ts.createRoom(t, alice.UserID)
	assert.Len(t, room.RoomID, 5)
	assert.Equal(t, "Finals", room.RoomName)
	assert.Equal(t, []string{alice.UserID}, room.Players)

	// Lower-case room IDs are accepted on join
	rr := ts.request(http.MethodPost, "/join-room", map[string]string{
		"roomId": strings.ToLower(room.RoomID),
		"userId": bob.UserID,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/rooms/"+room.RoomID+"/players", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, []string{alice.UserID, bob.UserID}, got.Players)
}

func TestJoinRoomErrors(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "Alice")
	bob := ts.login(t, "Bob")
	carol := ts.login(t, "Carol")
	room := ts.createRoom(t, alice.UserID)

	rr := ts.request(http.MethodPost, "/join-room", map[string]string{"roomId": "ZZZZZ", "userId": bob.UserID})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Room not found", decodeError(t, rr).Message)

	rr = ts.request(http.MethodPost, "/join-room", map[string]string{"roomId": room.RoomID, "userId": bob.UserID})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/join-room", map[string]string{"roomId": room.RoomID, "userId": carol.UserID})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Room is full", decodeError(t, rr).Message)

	rr = ts.request(http.MethodPost, "/join-room", map[string]string{"roomId": room.RoomID})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRoomForUnknownUser(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/create-room", map[string]string{"userId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, decodeError(t, rr).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodGet, "/health", nil)

	rr := ts.request(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "handgame_connected_clients")
	assert.Contains(t, rr.Body.String(), `handgame_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestGameConnectionAccess(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	alice := ts.login(t, "Alice")
	bob := ts.login(t, "Bob")
	room := ts.createRoom(t, alice.UserID)
	wsBase := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsBase+"/ws/ZZZZZ/"+alice.UserID, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsBase+"/ws/"+room.RoomID+"/"+bob.UserID, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGameConnectionPlaysARound(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	alice := ts.login(t, "Alice")
	bob := ts.login(t, "Bob")
	room := ts.createRoom(t, alice.UserID)
	rr := ts.request(http.MethodPost, "/join-room", map[string]string{"roomId": room.RoomID, "userId": bob.UserID})
	require.Equal(t, http.StatusOK, rr.Code)

	wsBase := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room.RoomID + "/"
	aliceConn, _, err := websocket.DefaultDialer.Dial(wsBase+alice.UserID, nil)
	require.NoError(t, err)
	defer aliceConn.Close()
	bobConn, _, err := websocket.DefaultDialer.Dial(wsBase+bob.UserID, nil)
	require.NoError(t, err)
	defer bobConn.Close()

	readType := func(conn *websocket.Conn) map[string]any {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, "game_connected", readType(aliceConn)["type"])
	assert.Equal(t, "game_connected", readType(bobConn)["type"])

	require.NoError(t, aliceConn.WriteJSON(map[string]string{"type": "submit_move", "move": "paper"}))
	assert.Equal(t, "move_received", readType(aliceConn)["type"])
	assert.Equal(t, "move_received", readType(bobConn)["type"])

	require.NoError(t, bobConn.WriteJSON(map[string]string{"type": "submit_move", "move": "rock"}))
	readType(aliceConn)
	readType(bobConn)

	result := readType(bobConn)
	assert.Equal(t, "game_result", result["type"])
	assert.Equal(t, map[string]any{
		"moves":  map[string]any{"Alice": "paper", "Bob": "rock"},
		"winner": "Alice",
	}, result["result"])

	// Bob leaves; Alice is told and the seat is released
	require.NoError(t, bobConn.Close())
	readType(aliceConn) // game_result
	assert.Equal(t, "player_disconnected", readType(aliceConn)["type"])

	assert.Eventually(t, func() bool {
		member, err := ts.app.RoomController.IsMember(t.Context(), model.RoomID(room.RoomID), model.PlayerID(bob.UserID))
		return err == nil && !member
	}, 2*time.Second, 20*time.Millisecond)
}
