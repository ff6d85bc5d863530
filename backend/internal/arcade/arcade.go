// Package arcade holds the game-side state that depends on the wallet: which
// ships a player may fly and the cached high score.
package arcade

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/satsarcade/sats-arcade/internal/wallet"
)

var (
	ErrUnknownShip         = errors.New("unknown ship")
	ErrPremiumLocked       = errors.New("Premium ships require wallet connection")
	ErrInsufficientBalance = errors.New("Insufficient balance for this ship")
	ErrInvalidScore        = errors.New("score must not be negative")
)

// Ship is a selectable player ship. Price is in satoshi; a connected wallet
// must hold at least Price to select it.
type Ship struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	Speed    float64 `json:"speed"`
	FireRate float64 `json:"fireRate"`
	Color    uint32  `json:"color"`
}

// Premium reports whether the ship costs anything.
func (s Ship) Premium() bool { return s.Price > 0 }

const DefaultShipID = "basic"

var ships = []Ship{
	{ID: "basic", Name: "Basic Ship", Price: 0, Speed: 1, FireRate: 1, Color: 0x00ff00},
	{ID: "speed", Name: "Speed Fighter", Price: 1000, Speed: 1.5, FireRate: 1.2, Color: 0x00ffff},
	{ID: "heavy", Name: "Heavy Gunner", Price: 2000, Speed: 0.8, FireRate: 2, Color: 0xff0000},
}

// Ships returns the ship catalog in display order.
func Ships() []Ship {
	return append([]Ship(nil), ships...)
}

// LookupShip finds a ship by id, case-insensitively.
func LookupShip(id string) (Ship, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range ships {
		if s.ID == id {
			return s, true
		}
	}
	return Ship{}, false
}

// ProfileStore persists the auxiliary game keys.
type ProfileStore interface {
	HighScore() (int, error)
	SetHighScore(score int) error
	SelectedShip() (string, error)
	SetSelectedShip(id string) error
}

// SessionSource exposes the current wallet session.
type SessionSource interface {
	Session() wallet.Session
}

// Profile is the arcade view of the current player.
type Profile struct {
	Ship      Ship     `json:"ship"`
	HighScore int      `json:"highScore"`
	IsGuest   bool     `json:"isGuest"`
	Connected bool     `json:"connected"`
	Address   string   `json:"address,omitempty"`
	Balance   int64    `json:"balance"`
	Unlocked  []string `json:"unlocked"`
}

// Service applies wallet gating to ship selection and tracks high scores.
type Service struct {
	store    ProfileStore
	sessions SessionSource
	mu       sync.Mutex
}

// NewService creates an arcade service.
func NewService(store ProfileStore, sessions SessionSource) *Service {
	return &Service{store: store, sessions: sessions}
}

// CanSelect reports whether sess may fly ship, and why not.
func CanSelect(sess wallet.Session, ship Ship) error {
	if !ship.Premium() {
		return nil
	}
	if sess.IsGuest || !sess.Connected {
		return ErrPremiumLocked
	}
	if sess.Balance.Total < ship.Price {
		return ErrInsufficientBalance
	}
	return nil
}

// SelectShip validates and stores the player's ship.
func (s *Service) SelectShip(id string) (Ship, error) {
	ship, ok := LookupShip(id)
	if !ok {
		return Ship{}, fmt.Errorf("%w: %q", ErrUnknownShip, id)
	}
	if err := CanSelect(s.sessions.Session(), ship); err != nil {
		return Ship{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetSelectedShip(ship.ID); err != nil {
		return Ship{}, fmt.Errorf("arcade: save ship: %w", err)
	}
	return ship, nil
}

// CurrentShip returns the stored ship if the current session may still fly
// it, otherwise the default ship.
func (s *Service) CurrentShip() (Ship, error) {
	s.mu.Lock()
	id, err := s.store.SelectedShip()
	s.mu.Unlock()
	if err != nil {
		return Ship{}, fmt.Errorf("arcade: load ship: %w", err)
	}
	basic, _ := LookupShip(DefaultShipID)
	ship, ok := LookupShip(id)
	if !ok || CanSelect(s.sessions.Session(), ship) != nil {
		return basic, nil
	}
	return ship, nil
}

// RecordScore keeps the highest score seen and reports whether score set a
// new record.
func (s *Service) RecordScore(score int) (int, bool, error) {
	if score < 0 {
		return 0, false, ErrInvalidScore
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	best, err := s.store.HighScore()
	if err != nil {
		return 0, false, fmt.Errorf("arcade: load high score: %w", err)
	}
	if score <= best {
		return best, false, nil
	}
	if err := s.store.SetHighScore(score); err != nil {
		return best, false, fmt.Errorf("arcade: save high score: %w", err)
	}
	return score, true, nil
}

// Profile assembles the player view.
func (s *Service) Profile() (Profile, error) {
	sess := s.sessions.Session()
	ship, err := s.CurrentShip()
	if err != nil {
		return Profile{}, err
	}
	s.mu.Lock()
	best, err := s.store.HighScore()
	s.mu.Unlock()
	if err != nil {
		return Profile{}, fmt.Errorf("arcade: load high score: %w", err)
	}

	unlocked := make([]string, 0, len(ships))
	for _, sh := range ships {
		if CanSelect(sess, sh) == nil {
			unlocked = append(unlocked, sh.ID)
		}
	}
	return Profile{
		Ship:      ship,
		HighScore: best,
		IsGuest:   sess.IsGuest,
		Connected: sess.Connected,
		Address:   sess.Address,
		Balance:   sess.Balance.Total,
		Unlocked:  unlocked,
	}, nil
}
