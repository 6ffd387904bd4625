package app

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"ito/internal/domain"
)

// Registry owns the process-wide room map and the connection-to-room
// index. Rooms are created on first join and removed when their last
// player leaves or the host disbands them, so no empty room ever
// persists.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*RoomSession
	byPlayer map[string]string
	logger   *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:    make(map[string]*RoomSession),
		byPlayer: make(map[string]string),
		logger:   logger,
	}
}

// Join adds a connection to the named room, creating the room on first
// join. The joining player receives their card privately and the room
// receives the updated state. Returns the drawn secret number.
//
// When the join fails on a freshly created room, the room is discarded
// again so the registry never holds an empty room.
func (r *Registry) Join(conn ClientConn, roomName, nickname string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	playerID := conn.PlayerID()
	if _, ok := r.byPlayer[playerID]; ok {
		return 0, domain.ErrAlreadyInRoom
	}

	session, ok := r.rooms[roomName]
	created := false
	if !ok {
		session = NewRoomSession(roomName, RandomTheme(), r.logger)
		r.rooms[roomName] = session
		created = true
	}

	number, err := session.AddPlayer(playerID, nickname)
	if err != nil {
		if created {
			delete(r.rooms, roomName)
			session.Close()
		}
		return 0, err
	}

	session.RegisterClient(conn)
	r.byPlayer[playerID] = roomName
	session.AnnounceJoin(playerID, number)

	r.logger.Info("player joined", "room", roomName, "player", playerID, "created", created)

	return number, nil
}

// Leave removes a connection from whatever room it belongs to, deleting
// the room when it empties. A connection with no room is a no-op.
func (r *Registry) Leave(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomName, ok := r.byPlayer[playerID]
	if !ok {
		return
	}
	delete(r.byPlayer, playerID)

	session, ok := r.rooms[roomName]
	if !ok {
		return
	}

	session.UnregisterClient(playerID)

	if empty := session.RemovePlayer(playerID); empty {
		delete(r.rooms, roomName)
		session.Close()
		r.logger.Info("room removed", "room", roomName)
	} else {
		r.logger.Info("player left", "room", roomName, "player", playerID)
	}
}

// Disband removes the caller's room after notifying every member. Host
// only. A later join under the same name creates a fresh room.
func (r *Registry) Disband(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomName, ok := r.byPlayer[playerID]
	if !ok {
		return domain.ErrNotInRoom
	}

	session, ok := r.rooms[roomName]
	if !ok {
		return domain.ErrNotInRoom
	}

	if err := session.Disband(playerID); err != nil {
		return err
	}

	for id, name := range r.byPlayer {
		if name == roomName {
			delete(r.byPlayer, id)
		}
	}
	delete(r.rooms, roomName)
	session.Close()

	r.logger.Info("room disbanded", "room", roomName, "host", playerID)
	return nil
}

// RoomOf returns the session a connection belongs to, via the secondary
// index rather than a scan over all rooms
func (r *Registry) RoomOf(playerID string) (*RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomName, ok := r.byPlayer[playerID]
	if !ok {
		return nil, domain.ErrNotInRoom
	}

	session, ok := r.rooms[roomName]
	if !ok {
		return nil, domain.ErrNotInRoom
	}

	return session, nil
}

// Get returns a room session by name
func (r *Registry) Get(roomName string) (*RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.rooms[roomName]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return session, nil
}

// RoomCount returns the number of active rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// PlayerCount returns the total number of players across all rooms
func (r *Registry) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPlayer)
}

// RoomInfo is a lightweight view of one active room, for diagnostics
type RoomInfo struct {
	Name      string    `json:"name"`
	Players   int       `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomInfos lists the active rooms, sorted by name
func (r *Registry) RoomInfos() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(r.rooms))
	for _, session := range r.rooms {
		infos = append(infos, RoomInfo{
			Name:      session.Name(),
			Players:   session.PlayerCount(),
			CreatedAt: session.CreatedAt(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// Close shuts down every session
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.rooms {
		session.Close()
	}
	r.rooms = make(map[string]*RoomSession)
	r.byPlayer = make(map[string]string)
}
