package wallet

import "strings"

// ChainType is the chain enum reported by the provider's getChain call.
type ChainType string

const (
	ChainBitcoinMainnet        ChainType = "BITCOIN_MAINNET"
	ChainBitcoinTestnet        ChainType = "BITCOIN_TESTNET"
	ChainBitcoinTestnet4       ChainType = "BITCOIN_TESTNET4"
	ChainBitcoinSignet         ChainType = "BITCOIN_SIGNET"
	ChainFractalBitcoinMainnet ChainType = "FRACTAL_BITCOIN_MAINNET"
	ChainFractalBitcoinTestnet ChainType = "FRACTAL_BITCOIN_TESTNET"
)

// NetworkType groups chains into main and test networks.
type NetworkType string

const (
	NetworkTypeMainnet NetworkType = "mainnet"
	NetworkTypeTestnet NetworkType = "testnet"
)

// Chain describes a chain the wallet extension can be switched to.
type Chain struct {
	Enum            ChainType   `json:"enum"`
	Label           string      `json:"label"`
	Unit            string      `json:"unit"`
	NetworkType     NetworkType `json:"networkType"`
	Endpoints       []string    `json:"endpoints"`
	MempoolSpaceURL string      `json:"mempoolSpaceUrl"`
	UnisatURL       string      `json:"unisatUrl"`
	OrdinalsURL     string      `json:"ordinalsUrl"`
}

var chains = []Chain{
	{
		Enum:            ChainBitcoinMainnet,
		Label:           "Bitcoin Mainnet",
		Unit:            "BTC",
		NetworkType:     NetworkTypeMainnet,
		Endpoints:       []string{"https://wallet-api.unisat.io"},
		MempoolSpaceURL: "https://mempool.space",
		UnisatURL:       "https://unisat.io",
		OrdinalsURL:     "https://ordinals.com",
	},
	{
		Enum:            ChainBitcoinTestnet,
		Label:           "Bitcoin Testnet",
		Unit:            "tBTC",
		NetworkType:     NetworkTypeTestnet,
		Endpoints:       []string{"https://wallet-api-testnet.unisat.io"},
		MempoolSpaceURL: "https://mempool.space/testnet",
		UnisatURL:       "https://testnet.unisat.io",
		OrdinalsURL:     "https://testnet.ordinals.com",
	},
	{
		Enum:            ChainBitcoinTestnet4,
		Label:           "Bitcoin Testnet4 (Beta)",
		Unit:            "tBTC",
		NetworkType:     NetworkTypeTestnet,
		Endpoints:       []string{"https://wallet-api-testnet4.unisat.io"},
		MempoolSpaceURL: "https://mempool.space/testnet4",
		UnisatURL:       "https://testnet4.unisat.io",
		OrdinalsURL:     "https://testnet4.ordinals.com",
	},
	{
		Enum:            ChainBitcoinSignet,
		Label:           "Bitcoin Signet",
		Unit:            "sBTC",
		NetworkType:     NetworkTypeTestnet,
		Endpoints:       []string{"https://wallet-api-signet.unisat.io"},
		MempoolSpaceURL: "https://mempool.space/signet",
		UnisatURL:       "https://signet.unisat.io",
		OrdinalsURL:     "https://signet.ordinals.com",
	},
	{
		Enum:            ChainFractalBitcoinMainnet,
		Label:           "Fractal Bitcoin Mainnet",
		Unit:            "FB",
		NetworkType:     NetworkTypeMainnet,
		Endpoints:       []string{"https://wallet-api-fractal.unisat.io"},
		MempoolSpaceURL: "https://mempool.fractalbitcoin.io",
		UnisatURL:       "https://fractal.unisat.io",
		OrdinalsURL:     "https://ordinals.fractalbitcoin.io",
	},
	{
		Enum:            ChainFractalBitcoinTestnet,
		Label:           "Fractal Bitcoin Testnet",
		Unit:            "tFB",
		NetworkType:     NetworkTypeMainnet,
		Endpoints:       []string{"https://wallet-api-fractal.unisat.io/testnet"},
		MempoolSpaceURL: "https://mempool-testnet.fractalbitcoin.io",
		UnisatURL:       "https://fractal-testnet.unisat.io",
		OrdinalsURL:     "https://ordinals-testnet.fractalbitcoin.io",
	},
}

// Chains returns a copy of the chain catalog.
func Chains() []Chain {
	out := make([]Chain, len(chains))
	for i, c := range chains {
		c.Endpoints = append([]string(nil), c.Endpoints...)
		out[i] = c
	}
	return out
}

// LookupChain returns the catalog entry for a chain enum.
func LookupChain(ct ChainType) (Chain, bool) {
	for _, c := range chains {
		if c.Enum == ct {
			c.Endpoints = append([]string(nil), c.Endpoints...)
			return c, true
		}
	}
	return Chain{}, false
}

// FormatNetwork derives the session Network from the provider's network label
// and chain enum. Fractal chain types take precedence over the label; the
// chain's network type is only consulted when the label is not recognised.
func FormatNetwork(label string, chain ChainType) Network {
	switch chain {
	case ChainFractalBitcoinMainnet:
		return NetworkFractalMainnet
	case ChainFractalBitcoinTestnet:
		return NetworkFractalTestnet
	}

	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "livenet", "mainnet":
		return NetworkMainnet
	case "testnet":
		return NetworkTestnet
	}
	if strings.Contains(l, "fractal") {
		if strings.Contains(l, "test") {
			return NetworkFractalTestnet
		}
		return NetworkFractalMainnet
	}

	if c, ok := LookupChain(chain); ok {
		if c.NetworkType == NetworkTypeTestnet {
			return NetworkTestnet
		}
		return NetworkMainnet
	}
	return NetworkUnknown
}

// DisplayName is the human label shown in the network badge.
func DisplayName(n Network) string {
	switch n {
	case NetworkMainnet:
		return "Bitcoin Mainnet"
	case NetworkTestnet:
		return "Bitcoin Testnet"
	case NetworkFractalMainnet:
		return "Fractal Mainnet"
	case NetworkFractalTestnet:
		return "Fractal Testnet"
	default:
		return "Unknown Network"
	}
}
