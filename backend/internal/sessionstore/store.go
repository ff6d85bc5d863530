// Package sessionstore persists the wallet session triple and the arcade's
// small game-state caches under fixed keys.
package sessionstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// Keys owned by the application. Clear removes all of them.
const (
	KeyConnected    = "walletConnected"
	KeyAddress      = "walletAddress"
	KeyNetwork      = "walletNetwork"
	KeyHighScore    = "highScore"
	KeySelectedShip = "selectedShip"
)

var ownedKeys = []string{KeyConnected, KeyAddress, KeyNetwork, KeyHighScore, KeySelectedShip}

// Store implements wallet.Store on top of a KV backend.
type Store struct {
	kv KV
}

var _ wallet.Store = (*Store)(nil)

// New wraps kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted session. ok is false unless all three keys are
// present, connected is "true" and the address is non-empty.
func (s *Store) Load() (wallet.PersistedSession, bool, error) {
	values := make(map[string]string, 3)
	for _, key := range []string{KeyConnected, KeyAddress, KeyNetwork} {
		v, ok, err := s.kv.Get(key)
		if err != nil {
			return wallet.PersistedSession{}, false, err
		}
		if !ok {
			return wallet.PersistedSession{}, false, nil
		}
		values[key] = v
	}
	if values[KeyConnected] != "true" || strings.TrimSpace(values[KeyAddress]) == "" {
		return wallet.PersistedSession{}, false, nil
	}
	return wallet.PersistedSession{
		Connected: true,
		Address:   values[KeyAddress],
		Network:   wallet.ParseNetwork(values[KeyNetwork]),
	}, true, nil
}

// Save writes the three session keys together.
func (s *Store) Save(p wallet.PersistedSession) error {
	if !p.Connected {
		return s.Clear()
	}
	if strings.TrimSpace(p.Address) == "" {
		return fmt.Errorf("sessionstore: address is required")
	}
	network := p.Network
	if network == "" {
		network = wallet.NetworkUnknown
	}
	return s.kv.SetMany(map[string]string{
		KeyConnected: "true",
		KeyAddress:   p.Address,
		KeyNetwork:   string(network),
	})
}

// Clear removes every key the application owns.
func (s *Store) Clear() error {
	return s.kv.Delete(ownedKeys...)
}

// HighScore returns the cached high score, or 0.
func (s *Store) HighScore() (int, error) {
	v, ok, err := s.kv.Get(KeyHighScore)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// SetHighScore caches score.
func (s *Store) SetHighScore(score int) error {
	return s.kv.SetMany(map[string]string{KeyHighScore: strconv.Itoa(score)})
}

// SelectedShip returns the cached ship id, or "".
func (s *Store) SelectedShip() (string, error) {
	v, _, err := s.kv.Get(KeySelectedShip)
	return v, err
}

// SetSelectedShip caches the ship id.
func (s *Store) SetSelectedShip(id string) error {
	return s.kv.SetMany(map[string]string{KeySelectedShip: id})
}
