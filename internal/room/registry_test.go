// internal/room/registry_test.go
package room

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink records sent payloads; fail makes every send error out.
type fakeSink struct {
	mu   sync.Mutex
	msgs [][]byte
	fail bool
}

func (s *fakeSink) Send(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink closed")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.msgs = append(s.msgs, cp)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *fakeSink) last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return nil
	}
	return s.msgs[len(s.msgs)-1]
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConnectTableCreatesRoomLazily(t *testing.T) {
	reg := NewRegistry(quietLogger())

	_, ok := reg.Lookup("dungeon-1")
	assert.False(t, ok, "lookup must not create rooms")

	g := reg.ConnectTable("dungeon-1", NewConn(&fakeSink{}))
	require.NotNil(t, g)
	assert.True(t, reg.HasTable("dungeon-1"))

	g2, ok := reg.Lookup("dungeon-1")
	require.True(t, ok)
	assert.Same(t, g, g2, "one game per room")
}

func TestConnectPlayerReplacesSameID(t *testing.T) {
	reg := NewRegistry(quietLogger())

	first := NewConn(&fakeSink{})
	second := NewConn(&fakeSink{})
	reg.ConnectPlayer("dungeon-1", "alice", first)
	reg.ConnectPlayer("dungeon-1", "bob", NewConn(&fakeSink{}))
	reg.ConnectPlayer("dungeon-1", "alice", second)

	assert.Equal(t, []string{"bob", "alice"}, reg.PlayerIDs("dungeon-1"),
		"replacement drops the stale conn and appends the new one")
}

func TestBroadcastReachesTableAndPlayers(t *testing.T) {
	reg := NewRegistry(quietLogger())

	table := &fakeSink{}
	p1 := &fakeSink{}
	p2 := &fakeSink{}
	reg.ConnectTable("dungeon-1", NewConn(table))
	reg.ConnectPlayer("dungeon-1", "alice", NewConn(p1))
	reg.ConnectPlayer("dungeon-1", "bob", NewConn(p2))

	reg.Broadcast("dungeon-1", map[string]any{"type": "turn_start", "turnIndex": 1})

	for _, s := range []*fakeSink{table, p1, p2} {
		require.Eventually(t, func() bool { return s.count() == 1 },
			time.Second, time.Millisecond)
		assert.JSONEq(t, `{"type":"turn_start","turnIndex":1}`, string(s.last()))
	}
}

func TestBroadcastSurvivesFailingRecipient(t *testing.T) {
	reg := NewRegistry(quietLogger())

	broken := &fakeSink{fail: true}
	healthy := &fakeSink{}
	reg.ConnectPlayer("dungeon-1", "alice", NewConn(broken))
	reg.ConnectPlayer("dungeon-1", "bob", NewConn(healthy))

	reg.Broadcast("dungeon-1", map[string]string{"type": "phase_change"})

	require.Eventually(t, func() bool { return healthy.count() == 1 },
		time.Second, time.Millisecond, "healthy recipient starved by a failing one")
}

func TestBroadcastUnknownRoomIsNoOp(t *testing.T) {
	reg := NewRegistry(quietLogger())
	assert.NotPanics(t, func() {
		reg.Broadcast("ghost-room", map[string]string{"type": "noise"})
	})
}

func TestSendToPlayerTargetsOnlyThatPlayer(t *testing.T) {
	reg := NewRegistry(quietLogger())

	alice := &fakeSink{}
	bob := &fakeSink{}
	reg.ConnectPlayer("dungeon-1", "alice", NewConn(alice))
	reg.ConnectPlayer("dungeon-1", "bob", NewConn(bob))

	reg.SendToPlayer("dungeon-1", "alice", map[string]any{"type": "hand", "hand": []string{"ember-burst"}})

	require.Eventually(t, func() bool { return alice.count() == 1 },
		time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, bob.count(), "private send leaked to another player")
}

func TestDisconnectReportsDepartureAndTearsDownEmptyRoom(t *testing.T) {
	reg := NewRegistry(quietLogger())

	tableConn := NewConn(&fakeSink{})
	aliceConn := NewConn(&fakeSink{})
	bobConn := NewConn(&fakeSink{})
	reg.ConnectTable("dungeon-1", tableConn)
	reg.ConnectPlayer("dungeon-1", "alice", aliceConn)
	reg.ConnectPlayer("dungeon-1", "bob", bobConn)

	dep := reg.Disconnect(aliceConn)
	require.NotNil(t, dep)
	assert.True(t, dep.PlayerLeft)
	assert.False(t, dep.WasTable)
	assert.Equal(t, "alice", dep.PlayerID)
	assert.Equal(t, []string{"bob"}, dep.PlayerList)

	dep = reg.Disconnect(tableConn)
	require.NotNil(t, dep)
	assert.True(t, dep.WasTable)
	assert.False(t, dep.PlayerLeft)
	assert.False(t, reg.HasTable("dungeon-1"))

	_, ok := reg.Lookup("dungeon-1")
	assert.True(t, ok, "room survives while a player remains")

	reg.Disconnect(bobConn)
	_, ok = reg.Lookup("dungeon-1")
	assert.False(t, ok, "empty room must be destroyed")
}

func TestDisconnectStaleReplacedConnLeavesNewOneAlone(t *testing.T) {
	reg := NewRegistry(quietLogger())

	stale := NewConn(&fakeSink{})
	fresh := NewConn(&fakeSink{})
	reg.ConnectPlayer("dungeon-1", "alice", stale)
	reg.ConnectPlayer("dungeon-1", "alice", fresh)

	// The stale socket closing after replacement must not evict the fresh one.
	reg.Disconnect(stale)
	assert.Equal(t, []string{"alice"}, reg.PlayerIDs("dungeon-1"))
}

func TestDisconnectUntrackedConnIsNoOp(t *testing.T) {
	reg := NewRegistry(quietLogger())
	assert.Nil(t, reg.Disconnect(nil))
	assert.Nil(t, reg.Disconnect(NewConn(&fakeSink{})))
}

func TestRoomsListing(t *testing.T) {
	reg := NewRegistry(quietLogger())
	reg.ConnectTable("dungeon-1", NewConn(&fakeSink{}))
	reg.ConnectPlayer("dungeon-1", "alice", NewConn(&fakeSink{}))
	reg.ConnectPlayer("dungeon-2", "bob", NewConn(&fakeSink{}))

	infos := reg.Rooms()
	require.Len(t, infos, 2)
	byName := map[string]RoomInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.Equal(t, RoomInfo{Name: "dungeon-1", Players: 1, TableOnline: true}, byName["dungeon-1"])
	assert.Equal(t, RoomInfo{Name: "dungeon-2", Players: 1, TableOnline: false}, byName["dungeon-2"])
}
