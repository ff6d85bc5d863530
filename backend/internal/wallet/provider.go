package wallet

import "context"

// Event names emitted by the wallet extension.
type Event string

const (
	EventAccountsChanged Event = "accountsChanged"
	EventNetworkChanged  Event = "networkChanged"
)

// EventPayload carries the event argument. Accounts is set for
// accountsChanged, Network for networkChanged.
type EventPayload struct {
	Accounts []string
	Network  string
}

// Handler is invoked by the provider when an event fires.
type Handler func(EventPayload)

// ListenerID identifies a registered handler for RemoveListener.
type ListenerID uint64

// ChainInfo is the result of getChain. Enum is empty when the provider has none.
type ChainInfo struct {
	Enum    ChainType
	Name    string
	Network string
}

// Provider is the call surface of an injected wallet extension. Every call
// may fail; callers check IsPresent before anything else.
type Provider interface {
	IsPresent() bool
	RequestAccounts(ctx context.Context) ([]string, error)
	GetAccounts(ctx context.Context) ([]string, error)
	GetNetwork(ctx context.Context) (string, error)
	GetChain(ctx context.Context) (*ChainInfo, error)
	GetPublicKey(ctx context.Context) (string, error)
	GetBalance(ctx context.Context) (Balance, error)
	SignMessage(ctx context.Context, text string) (string, error)
	SendBitcoin(ctx context.Context, address string, amountSats int64) (string, error)
	Disconnect(ctx context.Context) error
	On(event Event, h Handler) ListenerID
	RemoveListener(event Event, id ListenerID)
}
