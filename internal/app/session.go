package app

import (
	"log/slog"
	"sync"
	"time"

	"ito/internal/domain"
)

// Outbound event names, as clients know them
const (
	EventYourCard      = "your_card"
	EventGameUpdate    = "game_update"
	EventRoomDisbanded = "room_disbanded"
)

// ClientConn represents a connected client able to receive server events
type ClientConn interface {
	Send(event string, payload any) error
	PlayerID() string
	Close() error
}

// outEvent is one pending fan-out: a broadcast, a private delivery (only
// set) or an all-but-sender broadcast (exclude set)
type outEvent struct {
	name    string
	payload any
	only    string
	exclude string
}

// RoomSession wraps a Room with per-room locking and connection fan-out.
// The mutex is held for the full handling of one protocol event, which
// gives each mutation the same atomicity a single-threaded event loop
// would provide.
type RoomSession struct {
	name string
	mu   sync.Mutex
	room *domain.Room

	clients   map[string]ClientConn
	clientsMu sync.RWMutex

	events chan outEvent
	done   chan struct{}
	logger *slog.Logger
}

// NewRoomSession creates a session for a fresh room and starts its
// broadcast loop
func NewRoomSession(name, theme string, logger *slog.Logger) *RoomSession {
	s := &RoomSession{
		name:    name,
		room:    domain.NewRoom(name, theme),
		clients: make(map[string]ClientConn),
		events:  make(chan outEvent, 100),
		done:    make(chan struct{}),
		logger:  logger,
	}

	go s.eventLoop()

	return s
}

// Name returns the room name
func (s *RoomSession) Name() string {
	return s.name
}

// CreatedAt returns when the room was created
func (s *RoomSession) CreatedAt() time.Time {
	return s.room.CreatedAt
}

// PlayerCount returns the number of players in the room
func (s *RoomSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.PlayerCount()
}

// Snapshot returns a copy of the room's observable state
func (s *RoomSession) Snapshot() *domain.RoomSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Snapshot()
}

// RegisterClient registers a client connection for a player
func (s *RoomSession) RegisterClient(client ClientConn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.PlayerID()] = client
}

// UnregisterClient removes a client connection
func (s *RoomSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

// AddPlayer draws a number for the player and returns it. The caller
// registers the connection once the draw has succeeded and then calls
// AnnounceJoin, so a rejected connection never enters the broadcast set
// and the private card cannot be delivered before the connection is in
// it.
func (s *RoomSession) AddPlayer(playerID, nickname string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.AddPlayer(playerID, nickname)
	if err != nil {
		return 0, err
	}

	return player.Number, nil
}

// AnnounceJoin privately delivers the joiner's card and broadcasts the
// updated room
func (s *RoomSession) AnnounceJoin(playerID string, number int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queueEvent(outEvent{
		name:    EventYourCard,
		payload: &domain.YourCardPayload{Number: number},
		only:    playerID,
	})
	s.queueUpdate()
}

// RemovePlayer removes a player and broadcasts the updated room unless it
// is now empty. Reports whether the room emptied.
func (s *RoomSession) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty, err := s.room.RemovePlayer(playerID)
	if err != nil {
		return false
	}

	if !empty {
		s.queueUpdate()
	}

	return empty
}

// SubmitAnswer stores a player's clue and broadcasts the updated room
func (s *RoomSession) SubmitAnswer(playerID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.room.SubmitAnswer(playerID, answer); err != nil {
		return err
	}

	s.queueUpdate()
	return nil
}

// UpdateOrder replaces the proposed arrangement and broadcasts it to
// everyone except the originator, who already holds it locally
func (s *RoomSession) UpdateOrder(playerID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.room.SetOrder(ids); err != nil {
		return err
	}

	s.queueEvent(outEvent{
		name:    EventGameUpdate,
		payload: s.room.Snapshot(),
		exclude: playerID,
	})
	return nil
}

// ShowResult reveals the round outcome. Host only.
func (s *RoomSession) ShowResult(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}

	s.room.Reveal()
	s.queueUpdate()
	return nil
}

// ResetRound starts a new round under a fresh theme: numbers return to
// the pool, each player redraws and privately receives a new card. Host
// only.
func (s *RoomSession) ResetRound(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}

	theme := RandomThemeExcluding(s.room.Theme)
	drawn := s.room.ResetRound(theme)

	for id, number := range drawn {
		s.queueEvent(outEvent{
			name:    EventYourCard,
			payload: &domain.YourCardPayload{Number: number},
			only:    id,
		})
	}
	s.queueUpdate()

	s.logger.Info("round reset", "room", s.name, "theme", theme)
	return nil
}

// Disband notifies every member that the room is gone. Host only. The
// caller removes the session from the registry afterwards.
func (s *RoomSession) Disband(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}

	s.queueEvent(outEvent{name: EventRoomDisbanded})
	return nil
}

// queueUpdate queues a game_update broadcast with the current snapshot.
// Callers must hold s.mu.
func (s *RoomSession) queueUpdate() {
	s.queueEvent(outEvent{name: EventGameUpdate, payload: s.room.Snapshot()})
}

// queueEvent adds an event to the broadcast queue
func (s *RoomSession) queueEvent(ev outEvent) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event queue full, dropping event", "room", s.name, "event", ev.name)
	}
}

// eventLoop delivers queued events in order. On shutdown the remaining
// buffer is drained so terminal notifications still go out.
func (s *RoomSession) eventLoop() {
	for {
		select {
		case <-s.done:
			for {
				select {
				case ev := <-s.events:
					s.deliver(ev)
				default:
					return
				}
			}
		case ev := <-s.events:
			s.deliver(ev)
		}
	}
}

// deliver sends one event to its audience
func (s *RoomSession) deliver(ev outEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if ev.only != "" {
		if client, ok := s.clients[ev.only]; ok {
			if err := client.Send(ev.name, ev.payload); err != nil {
				s.logger.Debug("failed to send to client", "playerID", ev.only, "error", err)
			}
		}
		return
	}

	for playerID, client := range s.clients {
		if playerID == ev.exclude {
			continue
		}
		if err := client.Send(ev.name, ev.payload); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close stops the broadcast loop after flushing pending events
func (s *RoomSession) Close() {
	select {
	case <-s.done:
		return // Already closed
	default:
		close(s.done)
	}
}
