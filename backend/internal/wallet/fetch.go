package wallet

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// walletInfo is one consistent read of the provider.
type walletInfo struct {
	accounts  []string
	publicKey string
	balance   Balance
	network   string
	chain     *ChainInfo
}

func (w walletInfo) chainType() ChainType {
	if w.chain == nil {
		return ""
	}
	return w.chain.Enum
}

func (w walletInfo) session(accounts []string) Session {
	return Session{
		Address:   accounts[0],
		Accounts:  append([]string(nil), accounts...),
		PublicKey: w.publicKey,
		Network:   FormatNetwork(w.network, w.chainType()),
		ChainType: w.chainType(),
		Balance:   normalizeBalance(w.balance),
		Connected: true,
	}
}

// fetchInfo queries the provider concurrently. withAccounts adds getAccounts
// to the fan-out; connect already has the account list from requestAccounts.
// Any single failure fails the whole read so no partial state is applied.
func fetchInfo(ctx context.Context, p Provider, withAccounts bool) (walletInfo, error) {
	var info walletInfo
	g, gctx := errgroup.WithContext(ctx)

	if withAccounts {
		g.Go(func() error {
			accounts, err := p.GetAccounts(gctx)
			if err != nil {
				return providerFailed("getAccounts", err)
			}
			info.accounts = accounts
			return nil
		})
	}
	g.Go(func() error {
		network, err := p.GetNetwork(gctx)
		if err != nil {
			return providerFailed("getNetwork", err)
		}
		info.network = network
		return nil
	})
	g.Go(func() error {
		chain, err := p.GetChain(gctx)
		if err != nil {
			return providerFailed("getChain", err)
		}
		info.chain = chain
		return nil
	})
	g.Go(func() error {
		balance, err := p.GetBalance(gctx)
		if err != nil {
			return providerFailed("getBalance", err)
		}
		info.balance = balance
		return nil
	})
	g.Go(func() error {
		pk, err := p.GetPublicKey(gctx)
		if err != nil {
			return providerFailed("getPublicKey", err)
		}
		info.publicKey = pk
		return nil
	})

	if err := g.Wait(); err != nil {
		return walletInfo{}, err
	}
	return info, nil
}
