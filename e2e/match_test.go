package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/handgame/internal/api"
	"github.com/mcoot/handgame/internal/cli"
	"github.com/mcoot/handgame/internal/client"
	"github.com/mcoot/handgame/internal/factory"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/session"
	"github.com/mcoot/handgame/internal/testutil"
	"github.com/mcoot/handgame/internal/transport"
)

func startTestServer(t *testing.T) (*httptest.Server, *factory.App) {
	t.Helper()

	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		IdentityService: app.IdentityService,
		RoomController:  app.RoomController,
		HubManager:      app.HubManager,
		Registry:        app.Registry,
	}))
	t.Cleanup(func() {
		_ = app.Close()
		srv.Close()
	})
	return srv, app
}

// syncBuffer collects command output written from other goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// cliRunner runs the handgame command in-process as one player
type cliRunner struct {
	serverURL    string
	identityFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		serverURL:    serverURL,
		identityFile: filepath.Join(t.TempDir(), "identity.json"),
	}
}

func (r *cliRunner) command(stdin io.Reader, out io.Writer, args ...string) func(ctx context.Context) error {
	cmd := cli.NewRootCmd()
	cmd.SetArgs(append([]string{
		"--server", r.serverURL,
		"--identity-file", r.identityFile,
		"--output", "json",
	}, args...))
	cmd.SetIn(stdin)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext
}

func (r *cliRunner) run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	err := r.command(strings.NewReader(""), &out, args...)(context.Background())
	require.NoError(t, err, out.String())
	return out.String()
}

func (r *cliRunner) runErr(args ...string) (string, error) {
	var out bytes.Buffer
	err := r.command(strings.NewReader(""), &out, args...)(context.Background())
	return out.String(), err
}

func TestCLIIdentityAndRooms(t *testing.T) {
	srv, _ := startTestServer(t)
	alice := newCLIRunner(t, srv.URL)
	bob := newCLIRunner(t, srv.URL)
	carol := newCLIRunner(t, srv.URL)

	_, err := alice.runErr("whoami")
	assert.Error(t, err)

	var aliceID model.PlayerIdentity
	require.NoError(t, json.Unmarshal([]byte(alice.run(t, "login", "--name", "Alice")), &aliceID))
	assert.Equal(t, "Alice", aliceID.DisplayName)
	assert.NotEmpty(t, aliceID.UserID)

	var whoami model.PlayerIdentity
	require.NoError(t, json.Unmarshal([]byte(alice.run(t, "whoami")), &whoami))
	assert.Equal(t, aliceID, whoami)

	var room client.Room
	require.NoError(t, json.Unmarshal([]byte(alice.run(t, "room", "create", "--name", "Finals")), &room))
	assert.Equal(t, "Finals", room.RoomName)
	assert.Equal(t, []model.PlayerID{aliceID.UserID}, room.Players)

	bob.run(t, "login", "--name", "Bob")
	var joined client.Room
	require.NoError(t, json.Unmarshal([]byte(bob.run(t, "room", "join", strings.ToLower(string(room.RoomID)))), &joined))
	assert.Len(t, joined.Players, 2)

	var fetched client.Room
	require.NoError(t, json.Unmarshal([]byte(carol.run(t, "room", "get", string(room.RoomID))), &fetched))
	assert.ElementsMatch(t, joined.Players, fetched.Players)

	carol.run(t, "login", "--name", "Carol")
	out, err := carol.runErr("room", "join", string(room.RoomID))
	assert.Error(t, err)
	assert.Contains(t, out, "Room is full")

	var health client.Health
	require.NoError(t, json.Unmarshal([]byte(alice.run(t, "health")), &health))
	assert.Equal(t, "ok", health.Status)
}

// player is one side of a match driven through the session layer
type player struct {
	identity model.PlayerIdentity
	driver   *session.Driver
	notes    chan session.Notification
	runErr   chan error
	leave    context.CancelFunc
}

func (p *player) next(t *testing.T) session.Notification {
	t.Helper()
	select {
	case n := <-p.notes:
		return n
	case <-time.After(5 * time.Second):
		t.Fatalf("%s: timed out waiting for notification", p.identity.DisplayName)
		return nil
	}
}

// expect skips notifications until one of the wanted type arrives
func expect[N session.Notification](t *testing.T, p *player) N {
	t.Helper()
	for {
		if n, ok := p.next(t).(N); ok {
			return n
		}
	}
}

func connectPlayer(t *testing.T, ctx context.Context, serverURL string, roomID model.RoomID, id model.PlayerIdentity) *player {
	t.Helper()
	logger := testutil.NopLogger()

	conn := transport.New(transport.DefaultConfig(serverURL), logger)
	require.NoError(t, conn.Dial(ctx, string(roomID), string(id.UserID)))

	ctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	notes := make(chan session.Notification, 64)
	sess := session.New(roomID, id, conn, logger)
	d := session.NewDriver(sess, conn, session.SinkFunc(func(n session.Notification) { notes <- n }), logger)

	p := &player{identity: id, driver: d, notes: notes, runErr: make(chan error, 1), leave: cancel}
	go func() { p.runErr <- d.Run(ctx) }()
	return p
}

func setupMatch(t *testing.T, serverURL string) (model.RoomID, model.PlayerIdentity, model.PlayerIdentity) {
	t.Helper()
	ctx := context.Background()
	c := client.New(serverURL, serverURL)

	alice, err := c.Login(ctx, "Alice")
	require.NoError(t, err)
	bob, err := c.Login(ctx, "Bob")
	require.NoError(t, err)

	room, err := c.CreateRoom(ctx, alice.UserID, "Finals")
	require.NoError(t, err)
	_, err = c.JoinRoom(ctx, room.RoomID, bob.UserID)
	require.NoError(t, err)

	return room.RoomID, alice, bob
}

func TestMatchOverWebsocket(t *testing.T) {
	srv, app := startTestServer(t)
	roomID, aliceID, bobID := setupMatch(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := connectPlayer(t, ctx, srv.URL, roomID, aliceID)
	expect[session.WaitingForOpponent](t, alice)
	bob := connectPlayer(t, ctx, srv.URL, roomID, bobID)

	expect[session.Paired](t, alice)
	expect[session.Paired](t, bob)

	// Round one: paper covers rock
	require.NoError(t, alice.driver.SubmitMove(ctx, model.MovePaper))
	assert.Equal(t, session.MoveSubmitted{Move: model.MovePaper}, alice.next(t))
	require.ErrorIs(t, alice.driver.SubmitMove(ctx, model.MoveRock), session.ErrDuplicateSubmission)

	require.NoError(t, bob.driver.SubmitMove(ctx, model.MoveRock))

	aliceResult := expect[session.RoundResolved](t, alice)
	bobResult := expect[session.RoundResolved](t, bob)
	assert.Equal(t, model.OutcomeWin, aliceResult.Outcome)
	assert.Equal(t, model.OutcomeLose, bobResult.Outcome)
	assert.Equal(t, "Alice", aliceResult.Result.Winner)
	assert.Equal(t, map[string]model.Move{"Alice": model.MovePaper, "Bob": model.MoveRock}, bobResult.Result.MovesByPlayer)

	// Both opt in; the authority resets the round
	require.NoError(t, alice.driver.SignalReadyForNextRound(ctx))
	expect[session.AwaitingOpponentReady](t, alice)
	require.NoError(t, bob.driver.SignalReadyForNextRound(ctx))
	expect[session.RoundReset](t, alice)
	expect[session.RoundReset](t, bob)

	snap, err := alice.driver.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingMove, snap.State)
	assert.False(t, snap.HasSubmittedMove)
	assert.Nil(t, snap.LastResult)

	// Round two: a draw
	require.NoError(t, alice.driver.SubmitMove(ctx, model.MoveScissors))
	require.NoError(t, bob.driver.SubmitMove(ctx, model.MoveScissors))
	assert.Equal(t, model.OutcomeDraw, expect[session.RoundResolved](t, alice).Outcome)
	assert.Equal(t, model.OutcomeDraw, expect[session.RoundResolved](t, bob).Outcome)

	// Bob leaves; Alice learns about it and then closes her own session
	bob.leave()
	lost := expect[session.PeerLost](t, alice)
	assert.Contains(t, lost.Message, "Bob")

	require.Eventually(t, func() bool {
		rm, err := app.RoomController.GetRoom(ctx, roomID)
		return err == nil && !rm.HasPlayer(bobID.UserID)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.Equal(t, session.SessionTerminated{}, expect[session.SessionTerminated](t, alice))
}

func TestCLIPlaysAgainstSession(t *testing.T) {
	srv, app := startTestServer(t)
	roomID, aliceID, bobID := setupMatch(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alice plays through the CLI with a saved identity
	aliceCLI := newCLIRunner(t, srv.URL)
	aliceCLI.run(t, "login", "--name", aliceID.DisplayName)

	stdinR, stdinW := io.Pipe()
	defer func() { _ = stdinW.Close() }()
	out := &syncBuffer{}
	playDone := make(chan error, 1)
	go func() {
		playDone <- aliceCLI.command(stdinR, out, "play", string(roomID))(ctx)
	}()

	waitFor := func(event string, count int) {
		t.Helper()
		require.Eventually(t, func() bool {
			return strings.Count(out.String(), `"event":"`+event+`"`) >= count
		}, 5*time.Second, 20*time.Millisecond, "waiting for %s in:\n%s", event, out.String())
	}

	waitFor("waiting_for_opponent", 1)
	bob := connectPlayer(t, ctx, srv.URL, roomID, bobID)
	expect[session.Paired](t, bob)
	waitFor("paired", 1)

	_, err := io.WriteString(stdinW, "scissors\n")
	require.NoError(t, err)
	waitFor("move_submitted", 1)

	require.NoError(t, bob.driver.SubmitMove(ctx, model.MoveRock))
	assert.Equal(t, model.OutcomeWin, expect[session.RoundResolved](t, bob).Outcome)
	waitFor("round_resolved", 1)
	assert.Contains(t, out.String(), `"outcome":"lose"`)

	_, err = io.WriteString(stdinW, "n\n")
	require.NoError(t, err)

	select {
	case err := <-playDone:
		require.NoError(t, err, out.String())
	case <-time.After(5 * time.Second):
		t.Fatal("play did not return")
	}

	lost := expect[session.PeerLost](t, bob)
	assert.Contains(t, lost.Message, "Alice")

	require.Eventually(t, func() bool {
		rm, err := app.RoomController.GetRoom(ctx, roomID)
		return err == nil && !rm.HasPlayer(aliceID.UserID) && rm.HasPlayer(bobID.UserID)
	}, 5*time.Second, 20*time.Millisecond)
}
