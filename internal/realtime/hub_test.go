package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/handgame/internal/dependencies/mocks"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/protocol"
	"github.com/mcoot/handgame/internal/testutil"
)

// recordingLeaver records released seats
type recordingLeaver struct {
	mu   sync.Mutex
	left []model.PlayerID
}

func (r *recordingLeaver) LeaveRoom(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = append(r.left, playerID)
	return nil
}

func (r *recordingLeaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.left)
}

func newTestClient(id model.PlayerID, name string) *Client {
	return &Client{
		player: model.Player{ID: id, DisplayName: name},
		send:   make(chan []byte, sendBufferSize),
		logger: testutil.NopLogger(),
	}
}

type HubSuite struct {
	suite.Suite
	reg     *prometheus.Registry
	clock   *mocks.MockClock
	metrics *Metrics
	leaver  *recordingLeaver
	manager *HubManager
	hub     *Hub
	alice   *Client
	bob     *Client
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.metrics = NewMetrics(s.reg)
	s.leaver = &recordingLeaver{}
	s.manager = NewHubManager(s.leaver, s.clock, s.metrics, testutil.NopLogger())
	s.hub = s.manager.GetOrCreateHub("ROOM1")
	s.alice = newTestClient("p-alice", "Alice")
	s.bob = newTestClient("p-bob", "Bob")
}

func (s *HubSuite) TearDownTest() {
	s.manager.Shutdown()
}

// next reads the next message queued for a client
func (s *HubSuite) next(c *Client) protocol.Inbound {
	select {
	case data, ok := <-c.send:
		s.Require().True(ok, "send channel closed")
		msg, err := protocol.DecodeInbound(data)
		s.Require().NoError(err)
		return msg
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for message")
		return nil
	}
}

func (s *HubSuite) pair() {
	s.Require().True(s.hub.Register(s.alice))
	s.Require().True(s.hub.Register(s.bob))
	s.IsType(protocol.GameConnected{}, s.next(s.alice))
	s.IsType(protocol.GameConnected{}, s.next(s.bob))
}

func (s *HubSuite) send(c *Client, frame string) {
	s.Require().True(s.hub.Inbound(c, []byte(frame)))
}

func (s *HubSuite) TestPairingBroadcastsGameConnected() {
	s.pair()
	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.ConnectedClients))
}

func (s *HubSuite) TestFullRound() {
	s.pair()

	s.send(s.alice, `{"type":"submit_move","move":"rock"}`)
	s.Equal(protocol.MoveReceived{MovesCount: 1}, s.next(s.alice))
	s.Equal(protocol.MoveReceived{MovesCount: 1}, s.next(s.bob))

	s.send(s.bob, `{"type":"submit_move","move":"scissors"}`)
	s.Equal(protocol.MoveReceived{MovesCount: 2}, s.next(s.alice))
	s.Equal(protocol.MoveReceived{MovesCount: 2}, s.next(s.bob))

	expected := protocol.GameResult{Result: model.RoundResult{
		MovesByPlayer: map[string]model.Move{"Alice": model.MoveRock, "Bob": model.MoveScissors},
		Winner:        "Alice",
	}}
	s.Equal(expected, s.next(s.alice))
	s.Equal(expected, s.next(s.bob))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.RoundsResolved))

	s.send(s.alice, `{"type":"ready_for_next_round"}`)
	s.send(s.bob, `{"type":"ready_for_next_round"}`)
	s.IsType(protocol.GameReset{}, s.next(s.alice))
	s.IsType(protocol.GameReset{}, s.next(s.bob))
}

func (s *HubSuite) TestDuplicateSubmitIsRejected() {
	s.pair()

	s.send(s.alice, `{"type":"submit_move","move":"rock"}`)
	s.next(s.alice)
	s.next(s.bob)

	s.send(s.alice, `{"type":"submit_move","move":"paper"}`)
	s.IsType(protocol.ServerError{}, s.next(s.alice))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.FramesRejected.WithLabelValues(ReasonDuplicate)))
	s.Empty(s.bob.send)
}

func (s *HubSuite) TestMalformedAndUnknownFramesAreRejected() {
	s.pair()

	s.send(s.alice, `{"type":`)
	s.IsType(protocol.ServerError{}, s.next(s.alice))

	s.send(s.alice, `{"type":"emote"}`)
	s.IsType(protocol.ServerError{}, s.next(s.alice))

	s.send(s.alice, `{"type":"submit_move","move":"lizard"}`)
	s.IsType(protocol.ServerError{}, s.next(s.alice))

	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.FramesRejected.WithLabelValues(ReasonMalformed)))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.FramesRejected.WithLabelValues(ReasonUnknown)))
}

func (s *HubSuite) TestSubmitBeforeOpponentIsRejected() {
	s.Require().True(s.hub.Register(s.alice))

	s.send(s.alice, `{"type":"submit_move","move":"rock"}`)
	msg := s.next(s.alice)
	s.Equal(protocol.ServerError{Message: model.ErrOpponentMissing.Error()}, msg)
}

func (s *HubSuite) TestReadyBeforeResultIsRejected() {
	s.pair()

	s.send(s.alice, `{"type":"ready_for_next_round"}`)
	s.IsType(protocol.ServerError{}, s.next(s.alice))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.FramesRejected.WithLabelValues(ReasonOutOfOrder)))
}

func (s *HubSuite) TestSecondConnectionForSamePlayerIsRefused() {
	s.Require().True(s.hub.Register(s.alice))

	dup := newTestClient("p-alice", "Alice")
	s.Require().True(s.hub.Register(dup))

	s.IsType(protocol.ServerError{}, s.next(dup))
	_, ok := <-dup.send
	s.False(ok)
}

func (s *HubSuite) TestDisconnectNotifiesOpponentAndReleasesSeat() {
	s.pair()

	s.hub.Unregister(s.bob)

	s.Equal(protocol.PlayerDisconnected{Message: "Bob left the game"}, s.next(s.alice))
	s.Eventually(func() bool { return s.leaver.count() == 1 }, time.Second, 10*time.Millisecond)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.ConnectedClients))

	_, ok := <-s.bob.send
	s.False(ok)
}

func (s *HubSuite) TestDisconnectRecordsConnectionDuration() {
	s.pair()

	s.clock.Advance(90 * time.Second)
	s.hub.Unregister(s.bob)
	s.IsType(protocol.PlayerDisconnected{}, s.next(s.alice))

	families, err := s.reg.Gather()
	s.Require().NoError(err)
	for _, mf := range families {
		if mf.GetName() != "handgame_connection_duration_seconds" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		s.Equal(uint64(1), h.GetSampleCount())
		s.InDelta(90.0, h.GetSampleSum(), 0.001)
		return
	}
	s.Fail("connection duration histogram not registered")
}

func (s *HubSuite) TestEmptyHubIsReleased() {
	s.Require().True(s.hub.Register(s.alice))
	s.hub.Unregister(s.alice)

	select {
	case <-s.hub.Done():
	case <-time.After(2 * time.Second):
		s.FailNow("hub did not stop")
	}
	s.Nil(s.manager.GetHub("ROOM1"))
	s.False(s.hub.Register(newTestClient("p-carol", "Carol")))

	// A new connection gets a fresh hub
	next := s.manager.GetOrCreateHub("ROOM1")
	s.NotSame(s.hub, next)
}

func (s *HubSuite) TestShutdownDisconnectsEveryone() {
	s.pair()

	s.manager.Shutdown()

	_, ok := <-s.alice.send
	s.False(ok)
	_, ok = <-s.bob.send
	s.False(ok)
	s.Equal(0, s.manager.HubCount())
	s.Equal(0.0, promtestutil.ToFloat64(s.metrics.ConnectedClients))
}
