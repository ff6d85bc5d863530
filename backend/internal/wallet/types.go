package wallet

import "strings"

// Network is the formatted chain context of a session.
type Network string

const (
	NetworkMainnet        Network = "mainnet"
	NetworkTestnet        Network = "testnet"
	NetworkFractalMainnet Network = "fractal-mainnet"
	NetworkFractalTestnet Network = "fractal-testnet"
	NetworkUnknown        Network = "unknown"
)

// ParseNetwork maps a persisted label back to a Network. Unrecognised labels are NetworkUnknown.
func ParseNetwork(label string) Network {
	switch n := Network(strings.ToLower(strings.TrimSpace(label))); n {
	case NetworkMainnet, NetworkTestnet, NetworkFractalMainnet, NetworkFractalTestnet:
		return n
	default:
		return NetworkUnknown
	}
}

// Balance is denominated in satoshi. Total is confirmed + unconfirmed.
type Balance struct {
	Confirmed   int64 `json:"confirmed"`
	Unconfirmed int64 `json:"unconfirmed"`
	Total       int64 `json:"total"`
}

// normalizeBalance clamps negative provider values and recomputes Total so the
// cached balance never violates the confirmed + unconfirmed invariant.
func normalizeBalance(b Balance) Balance {
	if b.Confirmed < 0 {
		b.Confirmed = 0
	}
	if b.Unconfirmed < 0 {
		b.Unconfirmed = 0
	}
	b.Total = b.Confirmed + b.Unconfirmed
	return b
}

// Session is the in-memory view of the connected wallet.
type Session struct {
	Address   string    `json:"address,omitempty"`
	Accounts  []string  `json:"accounts,omitempty"`
	PublicKey string    `json:"publicKey,omitempty"`
	Network   Network   `json:"network"`
	ChainType ChainType `json:"chainType,omitempty"`
	Balance   Balance   `json:"balance"`
	Connected bool      `json:"connected"`
	IsGuest   bool      `json:"isGuest"`
}

func (s Session) clone() Session {
	if s.Accounts != nil {
		s.Accounts = append([]string(nil), s.Accounts...)
	}
	return s
}

func emptySession() Session {
	return Session{Network: NetworkUnknown}
}

// State is the lifecycle state of a Manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateGuest        State = "guest"
)

// Snapshot is the serializable view handed to emitters and UI bindings.
type Snapshot struct {
	State   State   `json:"state"`
	Session Session `json:"session"`
	Error   string  `json:"error,omitempty"`
}

// PersistedSession is the triple cached in the session store.
type PersistedSession struct {
	Connected bool
	Address   string
	Network   Network
}

// Store persists the session triple. Load reports ok=false when any field is
// missing; callers must treat that as absent and clear.
type Store interface {
	Load() (PersistedSession, bool, error)
	Save(PersistedSession) error
	Clear() error
}

// Transfer describes a successful send.
type Transfer struct {
	TxID    string  `json:"txid"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Amount  int64   `json:"amount"`
	Network Network `json:"network"`
}

// TransferRecorder receives successful sends for external persistence.
type TransferRecorder interface {
	RecordTransfer(Transfer)
}

// Emitter receives state snapshots and non-fatal errors.
type Emitter interface {
	EmitSession(Snapshot)
	EmitError(error)
}
