package domain

// RoomSnapshot is the full room view broadcast to members as game_update.
// It mirrors the wire shape clients already consume: players keyed by id,
// the host, the proposed ordering, the unassigned numbers, the theme and
// the reveal flag.
type RoomSnapshot struct {
	Players          map[string]*Player `json:"players"`
	HostID           string             `json:"hostId"`
	OrderedPlayerIDs []string           `json:"orderedPlayerIds"`
	AvailableNumbers []int              `json:"availableNumbers"`
	Theme            string             `json:"theme"`
	Phase            Phase              `json:"phase"`
	IsResultShown    bool               `json:"isResultShown"`
}

// Snapshot copies the room's observable state for broadcasting. Player
// entries are copied so later mutations cannot race the encoder.
func (r *Room) Snapshot() *RoomSnapshot {
	players := make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		cp := *p
		players[id] = &cp
	}

	ordered := make([]string, len(r.OrderedPlayerIDs))
	copy(ordered, r.OrderedPlayerIDs)

	return &RoomSnapshot{
		Players:          players,
		HostID:           r.HostID,
		OrderedPlayerIDs: ordered,
		AvailableNumbers: r.Pool.Available(),
		Theme:            r.Theme,
		Phase:            r.Phase,
		IsResultShown:    r.Phase == PhaseRevealed,
	}
}

// YourCardPayload carries a player's private secret number
type YourCardPayload struct {
	Number int `json:"number"`
}
