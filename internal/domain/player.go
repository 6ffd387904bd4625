package domain

import "time"

// Player represents a participant in a room
type Player struct {
	ID       string    `json:"id"`
	Nickname string    `json:"nickname"`
	Number   int       `json:"number"`
	Answer   string    `json:"answer"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player holding the given secret number
func NewPlayer(id, nickname string, number int) *Player {
	return &Player{
		ID:       id,
		Nickname: nickname,
		Number:   number,
		Answer:   "",
		IsReady:  false,
		JoinedAt: time.Now(),
	}
}

// ResetForRound clears the player's per-round state ahead of a fresh
// number draw
func (p *Player) ResetForRound() {
	p.Answer = ""
	p.IsReady = false
}
