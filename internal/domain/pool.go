package domain

import "math/rand"

// Secret number range shared by every room
const (
	MinSecretNumber = 1
	MaxSecretNumber = 100
)

// NumberPool holds the secret values of one room that are not currently
// assigned to any player. It is not safe for concurrent use; the owning
// room serializes access.
type NumberPool struct {
	available []int
}

// NewNumberPool creates a pool holding the full range
func NewNumberPool() *NumberPool {
	p := &NumberPool{}
	p.Reset()
	return p
}

// Draw removes and returns a uniformly random value from the pool
func (p *NumberPool) Draw() (int, error) {
	if len(p.available) == 0 {
		return 0, ErrPoolExhausted
	}

	i := rand.Intn(len(p.available))
	n := p.available[i]
	p.available[i] = p.available[len(p.available)-1]
	p.available = p.available[:len(p.available)-1]

	return n, nil
}

// Release returns a previously drawn value to the pool
func (p *NumberPool) Release(n int) {
	p.available = append(p.available, n)
}

// Reset reinitializes the pool to the full range
func (p *NumberPool) Reset() {
	p.available = p.available[:0]
	for n := MinSecretNumber; n <= MaxSecretNumber; n++ {
		p.available = append(p.available, n)
	}
}

// Remaining returns how many values are still unassigned
func (p *NumberPool) Remaining() int {
	return len(p.available)
}

// Available returns a copy of the unassigned values, in no particular order
func (p *NumberPool) Available() []int {
	out := make([]int, len(p.available))
	copy(out, p.available)
	return out
}
