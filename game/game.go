// game/game.go
package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wfunc/monopoly/board"
)

const (
	MaxPlayers    = 6
	StartingMoney = 1500
	GoBonus       = 200
	JailFine      = 50
	MaxJailTurns  = 3
)

// Player 是房间中的一个参与者
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Money      int    `json:"money"`
	Properties []int  `json:"properties"`
	InJail     bool   `json:"inJail"`
	JailTurns  int    `json:"jailTurns"`
	Bankrupt   bool   `json:"bankrupt"`
}

func newPlayer(id, name string) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		Money:      StartingMoney,
		Properties: []int{},
	}
}

// Owns reports whether the player holds the given space.
func (p *Player) Owns(spaceID int) bool {
	return slices.Contains(p.Properties, spaceID)
}

// State is the authoritative game state of one room. It is not safe for
// concurrent use; callers serialize access per room.
type State struct {
	RoomID             string      `json:"roomId"`
	Players            []*Player   `json:"players"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	GameStarted        bool        `json:"gameStarted"`
	Board              board.Board `json:"board"`
	DiceRoll           *Dice       `json:"diceRoll"`
	LastAction         string      `json:"lastAction"`
	Winner             string      `json:"winner,omitempty"`
}

// NewState creates a room's game with the host as the only player.
func NewState(roomID, hostID, hostName string) *State {
	return &State{
		RoomID:  roomID,
		Players: []*Player{newPlayer(hostID, hostName)},
		Board:   board.Classic,
	}
}

// Player returns the player with the given identity and its seat, or -1.
func (s *State) Player(id string) (*Player, int) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// Host returns the first seated player.
func (s *State) Host() *Player {
	if len(s.Players) == 0 {
		return nil
	}
	return s.Players[0]
}

func (s *State) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// ActivePlayers returns the players that are not bankrupt, in seat order.
func (s *State) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.Bankrupt {
			active = append(active, p)
		}
	}
	return active
}

// Owner returns the player holding the space, or nil.
func (s *State) Owner(spaceID int) *Player {
	for _, p := range s.Players {
		if p.Owns(spaceID) {
			return p
		}
	}
	return nil
}

// WinnerPlayer returns the declared winner if still seated.
func (s *State) WinnerPlayer() *Player {
	if s.Winner == "" {
		return nil
	}
	p, _ := s.Player(s.Winner)
	return p
}

func (s *State) Empty() bool {
	return len(s.Players) == 0
}

// Clone returns a copy that later transitions on s do not affect. The board
// is shared since it is never mutated.
func (s *State) Clone() *State {
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Properties = slices.Clone(p.Properties)
		c.Players[i] = &cp
	}
	if s.DiceRoll != nil {
		dice := *s.DiceRoll
		c.DiceRoll = &dice
	}
	return &c
}

// --- transitions ---

// Join seats a new player at GO with the starting money.
func (s *State) Join(id, name string) error {
	if len(s.Players) >= MaxPlayers {
		return ErrRoomFull
	}
	if s.GameStarted {
		return ErrGameAlreadyStarted
	}
	if _, i := s.Player(id); i >= 0 {
		return ErrAlreadyJoined
	}
	s.Players = append(s.Players, newPlayer(id, name))
	s.LastAction = fmt.Sprintf("%s joined the game", name)
	return nil
}

// Start begins the game. Only the host may start it, and only once.
func (s *State) Start(id string) error {
	host := s.Host()
	if host == nil || host.ID != id {
		return ErrNotHost
	}
	if s.GameStarted {
		return ErrGameAlreadyStarted
	}
	s.GameStarted = true
	s.CurrentPlayerIndex = 0
	s.LastAction = fmt.Sprintf("%s started the game", host.Name)
	return nil
}

func (s *State) turnPlayer(id string) (*Player, error) {
	if !s.GameStarted {
		return nil, ErrGameNotStarted
	}
	if _, i := s.Player(id); i < 0 {
		return nil, ErrPlayerNotFound
	}
	cur := s.CurrentPlayer()
	if cur == nil || cur.ID != id {
		return nil, ErrNotYourTurn
	}
	return cur, nil
}

// RollDice rolls for the current player and resolves jail, movement and
// the space landed on.
func (s *State) RollDice(id string, roller Roller) (Dice, error) {
	p, err := s.turnPlayer(id)
	if err != nil {
		return Dice{}, err
	}
	if p.Bankrupt {
		return Dice{}, ErrPlayerBankrupt
	}

	dice := roller.Roll()
	s.DiceRoll = &dice

	var parts []string
	if p.InJail {
		if dice.IsDouble() {
			p.InJail = false
			p.JailTurns = 0
			parts = append(parts, fmt.Sprintf("%s rolled doubles (%s) and got out of jail", p.Name, dice))
		} else {
			p.JailTurns++
			if p.JailTurns < MaxJailTurns {
				s.LastAction = fmt.Sprintf("%s rolled %s and stays in jail (attempt %d of %d)",
					p.Name, dice, p.JailTurns, MaxJailTurns)
				return dice, nil
			}
			p.InJail = false
			p.JailTurns = 0
			p.Money -= JailFine
			parts = append(parts, fmt.Sprintf("%s rolled %s, paid $%d and left jail", p.Name, dice, JailFine))
			if s.checkBankrupt(p) {
				parts = append(parts, fmt.Sprintf("%s is bankrupt!", p.Name))
				s.LastAction = strings.Join(parts, " - ")
				return dice, nil
			}
		}
	} else {
		parts = append(parts, fmt.Sprintf("%s rolled %s", p.Name, dice))
	}

	parts = append(parts, s.move(p, dice)...)
	s.LastAction = strings.Join(parts, " - ")
	return dice, nil
}

// move advances the player and resolves the landing space. Reaching or
// passing GO credits the bonus once.
func (s *State) move(p *Player, dice Dice) []string {
	var parts []string
	steps := p.Position + dice.Total()
	p.Position = steps % len(s.Board)
	if steps >= len(s.Board) {
		p.Money += GoBonus
		parts = append(parts, fmt.Sprintf("%s passed GO and collected $%d", p.Name, GoBonus))
	}
	return append(parts, s.land(p, s.Board.Space(p.Position))...)
}

func (s *State) land(p *Player, space board.Space) []string {
	switch {
	case space.Type == board.TypeGoToJail:
		p.Position = board.JailPosition
		p.InJail = true
		p.JailTurns = 0
		return []string{fmt.Sprintf("%s went to jail", p.Name)}

	case space.Ownable():
		owner := s.Owner(space.ID)
		switch {
		case owner == nil:
			return []string{fmt.Sprintf("%s landed on %s - Available for $%d", p.Name, space.Name, space.Price)}
		case owner == p:
			return []string{fmt.Sprintf("%s landed on their own %s", p.Name, space.Name)}
		}
		rent := s.rent(space, owner)
		p.Money -= rent
		owner.Money += rent
		parts := []string{fmt.Sprintf("%s paid $%d rent to %s", p.Name, rent, owner.Name)}
		if s.checkBankrupt(p) {
			parts = append(parts, fmt.Sprintf("%s is bankrupt!", p.Name))
		}
		return parts

	case space.Type == board.TypeTax:
		p.Money -= space.Amount
		parts := []string{fmt.Sprintf("%s paid $%d in taxes", p.Name, space.Amount)}
		if s.checkBankrupt(p) {
			parts = append(parts, fmt.Sprintf("%s is bankrupt!", p.Name))
		}
		return parts
	}
	return []string{fmt.Sprintf("%s landed on %s", p.Name, space.Name)}
}

// rent reads DiceRoll for utilities, so it is only valid inside RollDice.
func (s *State) rent(space board.Space, owner *Player) int {
	switch space.Type {
	case board.TypeProperty:
		if len(space.Rent) == 0 {
			return 0
		}
		return space.Rent[0]
	case board.TypeRailroad:
		if len(space.Rent) == 0 {
			return 0
		}
		tier := s.Board.CountOwned(owner.Properties, board.TypeRailroad) - 1
		tier = max(0, min(tier, len(space.Rent)-1))
		return space.Rent[tier]
	case board.TypeUtility:
		total := 0
		if s.DiceRoll != nil {
			total = s.DiceRoll.Total()
		}
		if s.Board.CountOwned(owner.Properties, board.TypeUtility) >= 2 {
			return total * 10
		}
		return total * 4
	}
	return 0
}

func (s *State) checkBankrupt(p *Player) bool {
	if p.Money < 0 {
		p.Bankrupt = true
	}
	return p.Bankrupt
}

// BuyProperty buys the unowned space under the current player.
func (s *State) BuyProperty(id string) (board.Space, error) {
	p, err := s.turnPlayer(id)
	if err != nil {
		return board.Space{}, err
	}
	if p.Bankrupt {
		return board.Space{}, ErrPlayerBankrupt
	}
	space := s.Board.Space(p.Position)
	if !space.Ownable() || space.Price <= 0 {
		return board.Space{}, ErrNotPurchasable
	}
	if s.Owner(space.ID) != nil {
		return board.Space{}, ErrAlreadyOwned
	}
	if p.Money < space.Price {
		return board.Space{}, ErrCannotAfford
	}
	p.Money -= space.Price
	p.Properties = append(p.Properties, space.ID)
	s.LastAction = fmt.Sprintf("%s bought %s for $%d", p.Name, space.Name, space.Price)
	return space, nil
}

// EndTurn passes the turn to the next non-bankrupt player. The winner is
// returned the one time it is declared.
func (s *State) EndTurn(id string) (*Player, error) {
	if _, err := s.turnPlayer(id); err != nil {
		return nil, err
	}
	s.advanceTurn()
	s.DiceRoll = nil
	return s.declareWinner(), nil
}

func (s *State) advanceTurn() {
	n := len(s.Players)
	for i := 1; i <= n; i++ {
		idx := (s.CurrentPlayerIndex + i) % n
		if !s.Players[idx].Bankrupt {
			s.CurrentPlayerIndex = idx
			return
		}
	}
}

func (s *State) declareWinner() *Player {
	if !s.GameStarted || s.Winner != "" {
		return nil
	}
	active := s.ActivePlayers()
	if len(active) != 1 {
		return nil
	}
	w := active[0]
	s.Winner = w.ID
	s.LastAction = fmt.Sprintf("%s wins the game!", w.Name)
	return w
}

// Leave removes a player. Seats after the leaver shift down; if the turn
// holder left, the turn passes to the next non-bankrupt seat. A winner is
// returned when the departure leaves one player standing in a started game.
func (s *State) Leave(id string) (removed *Player, winner *Player, err error) {
	p, idx := s.Player(id)
	if idx < 0 {
		return nil, nil, ErrPlayerNotFound
	}
	wasCurrent := idx == s.CurrentPlayerIndex
	s.Players = slices.Delete(s.Players, idx, idx+1)
	if len(s.Players) == 0 {
		s.CurrentPlayerIndex = 0
		return p, nil, nil
	}

	if idx < s.CurrentPlayerIndex {
		s.CurrentPlayerIndex--
	}
	if s.CurrentPlayerIndex >= len(s.Players) {
		s.CurrentPlayerIndex = 0
	}
	if wasCurrent {
		s.DiceRoll = nil
	}
	if s.Players[s.CurrentPlayerIndex].Bankrupt {
		s.CurrentPlayerIndex--
		if s.CurrentPlayerIndex < 0 {
			s.CurrentPlayerIndex = len(s.Players) - 1
		}
		s.advanceTurn()
	}
	s.LastAction = fmt.Sprintf("%s left the game", p.Name)
	return p, s.declareWinner(), nil
}
