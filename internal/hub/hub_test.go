package hub

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) events(t *testing.T) []Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]Event, 0, len(f.frames))
	for _, frame := range f.frames {
		var ev Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		events = append(events, ev)
	}
	return events
}

func (f *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	types := make([]string, 0)
	for _, ev := range f.events(t) {
		types = append(types, ev.Type)
	}
	return types
}

// fakeDirectory is an in-memory RoomDirectory.
type fakeDirectory struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

func newFakeDirectory(roomIDs ...string) *fakeDirectory {
	d := &fakeDirectory{rooms: make(map[string]map[string]struct{})}
	for _, id := range roomIDs {
		d.rooms[id] = make(map[string]struct{})
	}
	return d
}

func (d *fakeDirectory) Exists(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rooms[roomID]
	return ok
}

func (d *fakeDirectory) Join(roomID, memberID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[roomID][memberID] = struct{}{}
	return nil
}

func (d *fakeDirectory) Leave(roomID, memberID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if members, ok := d.rooms[roomID]; ok {
		delete(members, memberID)
	}
}

func (d *fakeDirectory) memberCount(roomID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms[roomID])
}

func TestRegisterAnnouncesPresence(t *testing.T) {
	h := New(newFakeDirectory(), true)

	first := &fakeConn{}
	h.Register(first)

	second := &fakeConn{}
	clientB := h.Register(second)

	// The earlier peer hears about the new connection; the new one does not
	// hear about itself.
	events := first.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, EventUserConnected, events[0].Type)
	assert.Equal(t, clientB.ID, events[0].SID)
	assert.Empty(t, second.frames)
}

func TestPresenceAnnounceDisabled(t *testing.T) {
	h := New(newFakeDirectory(), false)

	first := &fakeConn{}
	h.Register(first)
	clientB := h.Register(&fakeConn{})
	h.Unregister(clientB)

	assert.Empty(t, first.frames)
}

func TestJoinRoomNotifiesPeersOnly(t *testing.T) {
	dir := newFakeDirectory("room-1")
	h := New(dir, false)

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := h.Register(connA)
	clientB := h.Register(connB)

	h.JoinRoom(clientA, "room-1")
	h.JoinRoom(clientB, "room-1")

	assert.Equal(t, 2, dir.memberCount("room-1"))

	// A hears B's join; B hears nothing about its own join.
	require.Equal(t, []string{EventUserJoinedRoom}, connA.eventTypes(t))
	assert.Equal(t, clientB.ID, connA.events(t)[0].SID)
	assert.Equal(t, "room-1", connA.events(t)[0].Room)
	assert.Empty(t, connB.frames)
}

func TestJoinUnknownRoomIsIgnored(t *testing.T) {
	dir := newFakeDirectory()
	h := New(dir, false)

	client := h.Register(&fakeConn{})
	h.JoinRoom(client, "ghost")

	_, inRoom := client.Room()
	assert.False(t, inRoom)
}

func TestJoinSwitchesRooms(t *testing.T) {
	dir := newFakeDirectory("room-1", "room-2")
	h := New(dir, false)

	client := h.Register(&fakeConn{})
	h.JoinRoom(client, "room-1")
	h.JoinRoom(client, "room-2")

	roomID, inRoom := client.Room()
	require.True(t, inRoom)
	assert.Equal(t, "room-2", roomID)
	assert.Equal(t, 0, dir.memberCount("room-1"))
	assert.Equal(t, 1, dir.memberCount("room-2"))
}

func TestRelayDrawSkipsSender(t *testing.T) {
	dir := newFakeDirectory("room-1")
	h := New(dir, false)

	connA, connB, connC := &fakeConn{}, &fakeConn{}, &fakeConn{}
	clientA := h.Register(connA)
	clientB := h.Register(connB)
	h.Register(connC) // connected but never joins the room

	h.JoinRoom(clientA, "room-1")
	h.JoinRoom(clientB, "room-1")

	payload := json.RawMessage(`{"stroke":{"color":"#ff0000"}}`)
	h.RelayDraw(clientA, "room-1", payload)

	events := connB.events(t)
	last := events[len(events)-1]
	assert.Equal(t, EventDrawingUpdate, last.Type)
	assert.Equal(t, clientA.ID, last.SID)
	assert.JSONEq(t, string(payload), string(last.Data))

	// Sender and out-of-room clients hear nothing.
	for _, ev := range connA.events(t) {
		assert.NotEqual(t, EventDrawingUpdate, ev.Type)
	}
	assert.Empty(t, connC.frames)
}

func TestRelayClear(t *testing.T) {
	dir := newFakeDirectory("room-1")
	h := New(dir, false)

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := h.Register(connA)
	clientB := h.Register(connB)
	h.JoinRoom(clientA, "room-1")
	h.JoinRoom(clientB, "room-1")

	h.RelayClear(clientA, "room-1")

	events := connB.events(t)
	last := events[len(events)-1]
	assert.Equal(t, EventCanvasCleared, last.Type)
	assert.Equal(t, "room-1", last.Room)
}

func TestUnregisterLeavesRoom(t *testing.T) {
	dir := newFakeDirectory("room-1")
	h := New(dir, false)

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := h.Register(connA)
	clientB := h.Register(connB)
	h.JoinRoom(clientA, "room-1")
	h.JoinRoom(clientB, "room-1")

	h.Unregister(clientB)

	assert.Equal(t, 1, dir.memberCount("room-1"))
	events := connA.events(t)
	last := events[len(events)-1]
	assert.Equal(t, EventUserLeftRoom, last.Type)
	assert.Equal(t, clientB.ID, last.SID)
}

func TestConcurrentJoinLeaveKeepsMembershipConsistent(t *testing.T) {
	dir := newFakeDirectory("room-1")
	h := New(dir, false)

	clients := make([]*Client, 16)
	for i := range clients {
		clients[i] = h.Register(&fakeConn{})
	}

	var wg sync.WaitGroup
	for i, client := range clients {
		wg.Add(1)
		go func(i int, client *Client) {
			defer wg.Done()
			h.JoinRoom(client, "room-1")
			if i%2 == 0 {
				h.LeaveRoom(client, "room-1")
			}
		}(i, client)
	}
	wg.Wait()

	// The registry and the fanout view agree once the calls settle: every
	// still-bound client is a registry member and vice versa.
	bound := 0
	for _, client := range clients {
		if _, ok := client.Room(); ok {
			bound++
		}
	}
	assert.Equal(t, len(clients)/2, bound)
	assert.Equal(t, bound, dir.memberCount("room-1"))
}

func TestLeaveRoomNotBoundIsNoOp(t *testing.T) {
	dir := newFakeDirectory("room-1", "room-2")
	h := New(dir, false)

	client := h.Register(&fakeConn{})
	h.JoinRoom(client, "room-1")

	// Leaving a different room leaves the binding untouched.
	h.LeaveRoom(client, "room-2")
	roomID, inRoom := client.Room()
	require.True(t, inRoom)
	assert.Equal(t, "room-1", roomID)
}
