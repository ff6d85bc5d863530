package arcade

import (
	"errors"
	"testing"

	"github.com/satsarcade/sats-arcade/internal/sessionstore"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

type staticSession struct {
	sess wallet.Session
}

func (s *staticSession) Session() wallet.Session { return s.sess }

func testService(t *testing.T, sess wallet.Session) (*Service, *staticSession, *sessionstore.Store) {
	t.Helper()
	src := &staticSession{sess: sess}
	store := sessionstore.New(sessionstore.NewMemoryKV())
	return NewService(store, src), src, store
}

func connected(total int64) wallet.Session {
	return wallet.Session{
		Address:   "bc1xyz",
		Connected: true,
		Network:   wallet.NetworkMainnet,
		Balance:   wallet.Balance{Confirmed: total, Total: total},
	}
}

func TestCatalog(t *testing.T) {
	all := Ships()
	if len(all) != 3 {
		t.Fatalf("expected 3 ships, got %d", len(all))
	}
	want := map[string]int64{"basic": 0, "speed": 1000, "heavy": 2000}
	for _, s := range all {
		if want[s.ID] != s.Price {
			t.Fatalf("unexpected price for %s: %d", s.ID, s.Price)
		}
	}
	if _, ok := LookupShip(" SPEED "); !ok {
		t.Fatalf("lookup should ignore case and spaces")
	}
}

func TestSelectShipGating(t *testing.T) {
	cases := []struct {
		name string
		sess wallet.Session
		ship string
		want error
	}{
		{"guest basic", wallet.Session{IsGuest: true}, "basic", nil},
		{"guest premium", wallet.Session{IsGuest: true}, "speed", ErrPremiumLocked},
		{"disconnected premium", wallet.Session{}, "heavy", ErrPremiumLocked},
		{"connected exact balance", connected(1000), "speed", nil},
		{"connected short", connected(1999), "heavy", ErrInsufficientBalance},
		{"unknown", connected(5000), "ufo", ErrUnknownShip},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := testService(t, tc.sess)
			_, err := svc.SelectShip(tc.ship)
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCurrentShipFallsBackWhenLocked(t *testing.T) {
	svc, src, _ := testService(t, connected(5000))
	if _, err := svc.SelectShip("heavy"); err != nil {
		t.Fatalf("SelectShip: %v", err)
	}
	ship, err := svc.CurrentShip()
	if err != nil || ship.ID != "heavy" {
		t.Fatalf("expected heavy, got %v (%v)", ship.ID, err)
	}

	src.sess = wallet.Session{IsGuest: true}
	ship, err = svc.CurrentShip()
	if err != nil || ship.ID != DefaultShipID {
		t.Fatalf("expected fallback to basic, got %v (%v)", ship.ID, err)
	}
}

func TestRecordScoreKeepsMax(t *testing.T) {
	svc, _, store := testService(t, wallet.Session{IsGuest: true})

	best, record, err := svc.RecordScore(300)
	if err != nil || !record || best != 300 {
		t.Fatalf("first score: best=%d record=%v err=%v", best, record, err)
	}
	best, record, _ = svc.RecordScore(100)
	if record || best != 300 {
		t.Fatalf("lower score replaced record: best=%d", best)
	}
	if _, _, err := svc.RecordScore(-1); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}
	if hs, _ := store.HighScore(); hs != 300 {
		t.Fatalf("stored high score %d", hs)
	}

	// A full session reset wipes the arcade keys too.
	_ = store.Clear()
	if hs, _ := store.HighScore(); hs != 0 {
		t.Fatalf("high score survived reset: %d", hs)
	}
}

func TestProfile(t *testing.T) {
	svc, _, _ := testService(t, connected(1500))
	p, err := svc.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Ship.ID != DefaultShipID || !p.Connected || p.Balance != 1500 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if len(p.Unlocked) != 2 || p.Unlocked[1] != "speed" {
		t.Fatalf("unexpected unlocked ships: %v", p.Unlocked)
	}
}
