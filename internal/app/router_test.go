package app

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ito/internal/domain"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type recordedEvent struct {
	name    string
	payload any
}

// fakeConn records every event delivered to it. Safe for concurrent use,
// since session event loops deliver from their own goroutines.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []recordedEvent
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name: event, payload: payload})
	return nil
}

func (f *fakeConn) PlayerID() string { return f.id }

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.name == name {
			n++
		}
	}
	return n
}

func (f *fakeConn) last(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].name == name {
			return f.events[i].payload, true
		}
	}
	return nil, false
}

// newTestRouter builds a router whose limiter never throttles
func newTestRouter(t *testing.T) (*Router, *Registry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry(logger)
	t.Cleanup(registry.Close)

	limiter := NewSubmitLimiter(time.Second)
	var clock time.Time
	limiter.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	return NewRouter(registry, limiter, logger), registry
}

// assertSnapshotPartition checks that the unassigned numbers and the
// players' numbers partition 1..100 exactly
func assertSnapshotPartition(t *testing.T, snap *domain.RoomSnapshot) {
	t.Helper()

	seen := make(map[int]bool)
	for _, n := range snap.AvailableNumbers {
		require.False(t, seen[n])
		seen[n] = true
	}
	for _, p := range snap.Players {
		require.False(t, seen[p.Number])
		seen[p.Number] = true
	}
	require.Len(t, seen, 100)
}

func TestJoinRoom(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))

	assert.Equal(t, 1, registry.RoomCount())
	session, err := registry.RoomOf("a")
	require.NoError(t, err)

	snap := session.Snapshot()
	assert.Equal(t, "a", snap.HostID)
	require.Contains(t, snap.Players, "a")
	assert.Equal(t, "Alice", snap.Players["a"].Nickname)
	assert.Len(t, snap.AvailableNumbers, 99)
	assertSnapshotPartition(t, snap)

	require.Eventually(t, func() bool {
		return a.count(EventYourCard) == 1 && a.count(EventGameUpdate) >= 1
	}, waitFor, tick, "joiner receives private card then room update")

	card, ok := a.last(EventYourCard)
	require.True(t, ok)
	assert.Equal(t, snap.Players["a"].Number, card.(*domain.YourCardPayload).Number)
}

func TestJoinRoom_Validation(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")

	assert.ErrorIs(t, router.JoinRoom(a, "bad room!", "Alice"), domain.ErrInvalidRoomName)
	assert.ErrorIs(t, router.JoinRoom(a, "ABC", "<script>"), domain.ErrInvalidNickname)

	assert.Equal(t, 0, registry.RoomCount(), "failed joins leave no room behind")
	assert.Equal(t, 0, registry.PlayerCount())
}

func TestJoinRoom_SecondPlayer(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	b := newFakeConn("b")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	require.NoError(t, router.JoinRoom(b, "ABC", "Bob"))

	assert.Equal(t, 1, registry.RoomCount())

	session, err := registry.RoomOf("b")
	require.NoError(t, err)
	snap := session.Snapshot()

	assert.Equal(t, "a", snap.HostID, "host stays with the first joiner")
	assert.NotEqual(t, snap.Players["a"].Number, snap.Players["b"].Number)

	require.Eventually(t, func() bool {
		return a.count(EventGameUpdate) >= 2 && b.count(EventGameUpdate) >= 1
	}, waitFor, tick, "both members observe the second join")
}

func TestJoinRoom_AlreadyInRoom(t *testing.T) {
	router, _ := newTestRouter(t)
	a := newFakeConn("a")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	assert.ErrorIs(t, router.JoinRoom(a, "DEF", "Alice"), domain.ErrAlreadyInRoom)
}

func TestJoinRoom_RoomFull(t *testing.T) {
	router, registry := newTestRouter(t)

	var first *fakeConn
	for i := 0; i < 100; i++ {
		conn := newFakeConn(fmt.Sprintf("p%03d", i))
		if first == nil {
			first = conn
		}
		require.NoError(t, router.JoinRoom(conn, "FULL", "player"))
	}

	late := newFakeConn("late")
	assert.ErrorIs(t, router.JoinRoom(late, "FULL", "latecomer"), domain.ErrRoomFull)

	session, err := registry.Get("FULL")
	require.NoError(t, err)
	snap := session.Snapshot()
	assert.Len(t, snap.Players, 100, "rejected join must not alter existing players")
	assert.Empty(t, snap.AvailableNumbers)
	assertSnapshotPartition(t, snap)

	// The rejected connection never enters the broadcast set, so nothing
	// the room does afterwards can reach it
	session.clientsMu.RLock()
	_, registered := session.clients["late"]
	session.clientsMu.RUnlock()
	assert.False(t, registered, "rejected connection must not be registered")

	updatesBefore := first.count(EventGameUpdate)
	require.NoError(t, router.SubmitAnswer("p000", "clue"))
	require.Eventually(t, func() bool {
		return first.count(EventGameUpdate) >= updatesBefore+1
	}, waitFor, tick, "members receive the broadcast")

	// Deliveries happen in order from a single loop, so the broadcast has
	// already passed the rejected connection by
	assert.Zero(t, late.count(EventGameUpdate), "rejected connection receives no room state")
	assert.Zero(t, late.count(EventYourCard))
}

// Full happy path: two players join, submit clues, the host reveals.
func TestGameScenario(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	b := newFakeConn("b")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	require.NoError(t, router.JoinRoom(b, "ABC", "Bob"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)

	require.NoError(t, router.SubmitAnswer("a", "big"))
	snap := session.Snapshot()
	assert.True(t, snap.Players["a"].IsReady)
	assert.Equal(t, "big", snap.Players["a"].Answer)
	assert.Equal(t, []string{"a"}, snap.OrderedPlayerIDs)

	require.NoError(t, router.SubmitAnswer("b", "small"))
	snap = session.Snapshot()
	assert.Equal(t, []string{"a", "b"}, snap.OrderedPlayerIDs)

	assert.ErrorIs(t, router.ShowResult("b"), domain.ErrNotHost)
	assert.False(t, session.Snapshot().IsResultShown, "rejected reveal must not change state")

	require.NoError(t, router.ShowResult("a"))
	snap = session.Snapshot()
	assert.True(t, snap.IsResultShown)
	assert.Equal(t, domain.PhaseRevealed, snap.Phase)

	require.Eventually(t, func() bool {
		return a.count(EventGameUpdate) >= 5 && b.count(EventGameUpdate) >= 4
	}, waitFor, tick, "every mutation reaches every member")
}

func TestSubmitAnswer_Throttled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry(logger)
	t.Cleanup(registry.Close)

	clock := time.Unix(1000, 0)
	limiter := NewSubmitLimiter(time.Second)
	limiter.now = func() time.Time { return clock }
	router := NewRouter(registry, limiter, logger)

	a := newFakeConn("a")
	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))

	require.NoError(t, router.SubmitAnswer("a", "first"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)

	// Within the interval: silently dropped, no error, no state change
	clock = clock.Add(200 * time.Millisecond)
	require.NoError(t, router.SubmitAnswer("a", "second"))
	assert.Equal(t, "first", session.Snapshot().Players["a"].Answer)

	clock = clock.Add(time.Second)
	require.NoError(t, router.SubmitAnswer("a", "third"))
	assert.Equal(t, "third", session.Snapshot().Players["a"].Answer)
}

func TestSubmitAnswer_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.ErrorIs(t, router.SubmitAnswer("ghost", "clue"), domain.ErrNotInRoom)

	a := newFakeConn("a")
	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	assert.ErrorIs(t, router.SubmitAnswer("a", ""), domain.ErrInvalidAnswer)
}

func TestUpdateOrder(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	b := newFakeConn("b")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	require.NoError(t, router.JoinRoom(b, "ABC", "Bob"))
	require.NoError(t, router.SubmitAnswer("a", "big"))
	require.NoError(t, router.SubmitAnswer("b", "small"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)

	// Wait for the queue to settle so counts below are stable
	require.Eventually(t, func() bool {
		return a.count(EventGameUpdate) >= 4 && b.count(EventGameUpdate) >= 3
	}, waitFor, tick)

	aBefore := a.count(EventGameUpdate)
	bBefore := b.count(EventGameUpdate)

	require.NoError(t, router.UpdateOrder("a", []string{"b", "ghost", "a", "b"}))

	assert.Equal(t, []string{"b", "a"}, session.Snapshot().OrderedPlayerIDs,
		"foreign and duplicate ids are dropped")

	require.Eventually(t, func() bool {
		return b.count(EventGameUpdate) == bBefore+1
	}, waitFor, tick, "other members receive the new arrangement")

	// Events are delivered in order by a single loop, so once b has the
	// update, a was already skipped
	assert.Equal(t, aBefore, a.count(EventGameUpdate), "originator is not echoed its own reorder")

	assert.ErrorIs(t, router.UpdateOrder("ghost", []string{"a"}), domain.ErrNotInRoom)
}

func TestResetGame(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	b := newFakeConn("b")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	require.NoError(t, router.JoinRoom(b, "ABC", "Bob"))
	require.NoError(t, router.SubmitAnswer("a", "big"))
	require.NoError(t, router.SubmitAnswer("b", "small"))
	require.NoError(t, router.ShowResult("a"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)
	themeBefore := session.Snapshot().Theme

	assert.ErrorIs(t, router.ResetGame("b"), domain.ErrNotHost)

	require.NoError(t, router.ResetGame("a"))

	snap := session.Snapshot()
	assert.NotEqual(t, themeBefore, snap.Theme, "new round never repeats the previous theme")
	assert.Equal(t, domain.PhaseCollecting, snap.Phase)
	assert.False(t, snap.IsResultShown)
	assert.Empty(t, snap.OrderedPlayerIDs)
	for _, p := range snap.Players {
		assert.Empty(t, p.Answer)
		assert.False(t, p.IsReady)
	}
	assertSnapshotPartition(t, snap)

	require.Eventually(t, func() bool {
		return a.count(EventYourCard) == 2 && b.count(EventYourCard) == 2
	}, waitFor, tick, "every player privately receives a fresh card")
}

func TestHostOpRecoversFromPanic(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)
	before := session.Snapshot()

	err = router.hostOp("boom", "a", func(*RoomSession) error {
		panic("boom")
	})
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.Empty(t, cmp.Diff(before, session.Snapshot()), "recovered action must not leave state behind")

	// The room keeps working after the fault
	require.NoError(t, router.SubmitAnswer("a", "clue"))
	assert.Equal(t, "clue", session.Snapshot().Players["a"].Answer)
}

func TestResetGame_FaultSurfacesAsInternalError(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)

	session.mu.Lock()
	session.room.Pool = nil
	session.mu.Unlock()

	assert.ErrorIs(t, router.ResetGame("a"), domain.ErrInternal)
}

func TestRoomInfos(t *testing.T) {
	router, registry := newTestRouter(t)

	require.NoError(t, router.JoinRoom(newFakeConn("a"), "BBB", "Alice"))
	require.NoError(t, router.JoinRoom(newFakeConn("b"), "AAA", "Bob"))
	require.NoError(t, router.JoinRoom(newFakeConn("c"), "BBB", "Carol"))

	infos := registry.RoomInfos()
	require.Len(t, infos, 2)

	assert.Equal(t, "AAA", infos[0].Name)
	assert.Equal(t, 1, infos[0].Players)
	assert.Equal(t, "BBB", infos[1].Name)
	assert.Equal(t, 2, infos[1].Players)
	for _, info := range infos {
		assert.False(t, info.CreatedAt.IsZero())
	}
}

func TestDisbandRoom(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	b := newFakeConn("b")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	require.NoError(t, router.JoinRoom(b, "ABC", "Bob"))

	assert.ErrorIs(t, router.DisbandRoom("b"), domain.ErrNotHost)
	assert.Equal(t, 1, registry.RoomCount())

	require.NoError(t, router.DisbandRoom("a"))

	assert.Equal(t, 0, registry.RoomCount())
	_, err := registry.RoomOf("a")
	assert.ErrorIs(t, err, domain.ErrNotInRoom)

	require.Eventually(t, func() bool {
		return a.count(EventRoomDisbanded) == 1 && b.count(EventRoomDisbanded) == 1
	}, waitFor, tick, "every member is told the room is gone")

	// The name is free again and a new room starts from a full pool
	c := newFakeConn("c")
	require.NoError(t, router.JoinRoom(c, "ABC", "Carol"))
	session, err := registry.RoomOf("c")
	require.NoError(t, err)
	snap := session.Snapshot()
	assert.Equal(t, "c", snap.HostID)
	assert.Len(t, snap.AvailableNumbers, 99)
}

func TestDisconnect(t *testing.T) {
	router, registry := newTestRouter(t)
	a := newFakeConn("a")
	b := newFakeConn("b")
	c := newFakeConn("c")

	require.NoError(t, router.JoinRoom(a, "ABC", "Alice"))
	require.NoError(t, router.JoinRoom(b, "ABC", "Bob"))
	require.NoError(t, router.JoinRoom(c, "ABC", "Carol"))

	session, err := registry.RoomOf("a")
	require.NoError(t, err)

	// Pin distinct join times so promotion order is unambiguous
	session.mu.Lock()
	base := time.Now()
	session.room.Players["a"].JoinedAt = base
	session.room.Players["b"].JoinedAt = base.Add(time.Second)
	session.room.Players["c"].JoinedAt = base.Add(2 * time.Second)
	session.mu.Unlock()

	require.NoError(t, router.SubmitAnswer("a", "clue"))

	router.Disconnect("a")

	snap := session.Snapshot()
	assert.Equal(t, "b", snap.HostID, "earliest-joined remaining player becomes host")
	assert.NotContains(t, snap.Players, "a")
	assert.NotContains(t, snap.OrderedPlayerIDs, "a")
	assertSnapshotPartition(t, snap)

	router.Disconnect("b")
	router.Disconnect("c")
	assert.Equal(t, 0, registry.RoomCount(), "last disconnect removes the room")

	// Rejoining the name yields a fresh room with a full pool
	d := newFakeConn("d")
	require.NoError(t, router.JoinRoom(d, "ABC", "Dave"))
	session, err = registry.RoomOf("d")
	require.NoError(t, err)
	assert.Len(t, session.Snapshot().AvailableNumbers, 99)
}

func TestDisconnect_UnknownConnection(t *testing.T) {
	router, registry := newTestRouter(t)

	router.Disconnect("ghost")
	assert.Equal(t, 0, registry.RoomCount())
}
