package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Dice 是一次掷骰的结果
type Dice struct {
	Die1 int `json:"dice1"`
	Die2 int `json:"dice2"`
}

func (d Dice) Total() int {
	return d.Die1 + d.Die2
}

func (d Dice) IsDouble() bool {
	return d.Die1 == d.Die2
}

func (d Dice) String() string {
	return fmt.Sprintf("%d and %d", d.Die1, d.Die2)
}

// Roller produces dice rolls. Implementations must be safe for concurrent use
// since one roller is shared by every room.
type Roller interface {
	Roll() Dice
}

// RandRoller rolls two independent uniform dice.
type RandRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandRoller creates a roller; a zero seed uses the current time.
func NewRandRoller(seed int64) *RandRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandRoller) Roll() Dice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Dice{Die1: r.rng.Intn(6) + 1, Die2: r.rng.Intn(6) + 1}
}

// SequenceRoller replays a fixed list of rolls, cycling when exhausted.
type SequenceRoller struct {
	mu    sync.Mutex
	rolls []Dice
	next  int
}

func NewSequenceRoller(rolls ...Dice) *SequenceRoller {
	return &SequenceRoller{rolls: rolls}
}

func (r *SequenceRoller) Roll() Dice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rolls) == 0 {
		return Dice{Die1: 1, Die2: 1}
	}
	d := r.rolls[r.next%len(r.rolls)]
	r.next++
	return d
}
