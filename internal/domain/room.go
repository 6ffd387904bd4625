package domain

import (
	"time"
)

// Room is the authoritative state of one game session: players keyed by
// connection id, the unassigned number pool, the proposed ordering, the
// round theme and phase, and the identity of the host. It is not safe for
// concurrent use; callers serialize access (see app.RoomSession).
type Room struct {
	Name             string
	Players          map[string]*Player
	HostID           string
	OrderedPlayerIDs []string
	Pool             *NumberPool
	Theme            string
	Phase            Phase
	CreatedAt        time.Time
}

// NewRoom creates an empty room with a full number pool and the given
// opening theme
func NewRoom(name, theme string) *Room {
	return &Room{
		Name:             name,
		Players:          make(map[string]*Player),
		HostID:           "",
		OrderedPlayerIDs: make([]string, 0),
		Pool:             NewNumberPool(),
		Theme:            theme,
		Phase:            PhaseCollecting,
		CreatedAt:        time.Now(),
	}
}

// AddPlayer draws a secret number and registers the player. The first
// player to join becomes the host. Room state is untouched when the pool
// is exhausted.
func (r *Room) AddPlayer(id, nickname string) (*Player, error) {
	number, err := r.Pool.Draw()
	if err != nil {
		return nil, ErrRoomFull
	}

	player := NewPlayer(id, Sanitize(nickname), number)
	r.Players[id] = player

	if r.HostID == "" {
		r.HostID = id
	}

	return player, nil
}

// RemovePlayer releases the player's number back to the pool, scrubs the
// player from the proposed ordering and promotes a new host when the
// departing player held host authority. Reports whether the room is now
// empty.
func (r *Room) RemovePlayer(id string) (bool, error) {
	player, ok := r.Players[id]
	if !ok {
		return false, ErrPlayerNotFound
	}

	r.Pool.Release(player.Number)
	delete(r.Players, id)
	r.OrderedPlayerIDs = removeID(r.OrderedPlayerIDs, id)

	if len(r.Players) == 0 {
		r.HostID = ""
		return true, nil
	}

	if r.HostID == id {
		r.HostID = r.nextHost()
	}

	return false, nil
}

// nextHost picks the earliest-joined remaining player, ties broken by id
func (r *Room) nextHost() string {
	var best *Player
	for _, p := range r.Players {
		if best == nil ||
			p.JoinedAt.Before(best.JoinedAt) ||
			(p.JoinedAt.Equal(best.JoinedAt) && p.ID < best.ID) {
			best = p
		}
	}
	return best.ID
}

// SubmitAnswer stores a sanitized clue and marks the player ready. The
// first submission fixes the player's slot in the proposed ordering;
// resubmitting overwrites the clue without moving the slot.
func (r *Room) SubmitAnswer(id, answer string) error {
	if r.Phase != PhaseCollecting {
		return ErrWrongPhase
	}

	player, ok := r.Players[id]
	if !ok {
		return ErrPlayerNotFound
	}

	player.Answer = Sanitize(answer)
	player.IsReady = true

	if !containsID(r.OrderedPlayerIDs, id) {
		r.OrderedPlayerIDs = append(r.OrderedPlayerIDs, id)
	}

	return nil
}

// SetOrder replaces the proposed arrangement. Ids that are not current
// members and duplicate entries are dropped, so the ordering never refers
// outside the room.
func (r *Room) SetOrder(ids []string) error {
	if r.Phase != PhaseCollecting {
		return ErrWrongPhase
	}

	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.Players[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	r.OrderedPlayerIDs = out
	return nil
}

// Reveal moves the round to the revealed phase
func (r *Room) Reveal() {
	r.Phase = PhaseRevealed
}

// ResetRound starts a new round: every number returns to the pool, the
// pool is rebuilt to the full range and each player draws a fresh number.
// Returns the new number per player id for private delivery.
func (r *Room) ResetRound(theme string) map[string]int {
	r.Theme = theme
	r.Phase = PhaseCollecting
	r.OrderedPlayerIDs = r.OrderedPlayerIDs[:0]
	r.Pool.Reset()

	drawn := make(map[string]int, len(r.Players))
	for _, player := range r.Players {
		player.ResetForRound()
		// The pool was just rebuilt and holds more values than the room
		// can have players, so the draw cannot fail here.
		number, _ := r.Pool.Draw()
		player.Number = number
		drawn[player.ID] = number
	}

	return drawn
}

// IsHost checks if the given player holds host authority
func (r *Room) IsHost(id string) bool {
	return r.HostID == id
}

// PlayerCount returns the number of players in the room
func (r *Room) PlayerCount() int {
	return len(r.Players)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
