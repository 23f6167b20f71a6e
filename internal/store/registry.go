package store

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"whiteboard-backend/internal/model"
)

// RoomRegistry owns room lifecycle and membership. All state is in-memory and
// lives for the process lifetime.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]*roomState
	canvas *CanvasStore

	defaultWidth  int
	defaultHeight int
}

type roomState struct {
	id        string
	name      string
	createdAt time.Time
	width     int
	height    int
	members   map[string]struct{}
}

// Create registers a new room with default canvas dimensions and no members.
func (r *RoomRegistry) Create(name string) model.Room {
	room := &roomState{
		id:        uuid.NewString(),
		name:      name,
		createdAt: time.Now(),
		width:     r.defaultWidth,
		height:    r.defaultHeight,
		members:   make(map[string]struct{}),
	}

	r.mu.Lock()
	r.rooms[room.id] = room
	r.mu.Unlock()

	log.Printf("[Registry] Created room: %s (%q)", room.id, name)
	return room.snapshot()
}

// Get returns the room record or ErrRoomNotFound.
func (r *RoomRegistry) Get(roomID string) (model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return model.Room{}, ErrRoomNotFound
	}
	return room.snapshot(), nil
}

// Exists reports whether the room is registered.
func (r *RoomRegistry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Join adds a member to the room. Joining an absent room fails with
// ErrRoomNotFound; joining a room twice with the same member id is a no-op.
func (r *RoomRegistry) Join(roomID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	room.members[memberID] = struct{}{}
	return nil
}

// Leave removes a member from the room. It is a silent no-op when the room or
// member is absent, so the active-user count never goes negative.
func (r *RoomRegistry) Leave(roomID, memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(room.members, memberID)
}

// MemberCount returns the live member count, or 0 for an absent room.
func (r *RoomRegistry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.members)
}

// Delete removes the room and cascades deletion of its canvas document and
// analytics. Deleting an absent room is not an error.
func (r *RoomRegistry) Delete(roomID string) {
	r.mu.Lock()
	_, existed := r.rooms[roomID]
	delete(r.rooms, roomID)
	r.mu.Unlock()

	r.canvas.drop(roomID)
	if existed {
		log.Printf("[Registry] Deleted room: %s", roomID)
	}
}

func (rs *roomState) snapshot() model.Room {
	return model.Room{
		ID:           rs.id,
		Name:         rs.name,
		CreatedAt:    rs.createdAt,
		ActiveUsers:  len(rs.members),
		CanvasWidth:  rs.width,
		CanvasHeight: rs.height,
	}
}
