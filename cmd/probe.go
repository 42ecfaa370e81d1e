package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/config"
	"github.com/Mohsinsiddi/w3probe/internal/extensions"
	"github.com/Mohsinsiddi/w3probe/internal/nft"
	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/Mohsinsiddi/w3probe/internal/rpc"
	"github.com/Mohsinsiddi/w3probe/internal/secrets"
	"github.com/Mohsinsiddi/w3probe/internal/selectors"
	"github.com/spf13/cobra"
)

// prober bundles the clients shared by every contract command. One prober
// lives for one invocation, so its caches last as long as the process.
type prober struct {
	reg       *chain.Registry
	pool      *rpc.Pool
	impls     *proxy.Resolver
	recorder  *implRecorder
	selectors *selectors.Resolver
	detector  *extensions.Detector
	media     *nft.Client
}

func newProber() (*prober, error) {
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}

	reg := chain.NewRegistry()
	pool := rpc.NewPool(algo, rpcSource(reg, cfg, keychain))

	impls := proxy.NewResolver(func(ctx context.Context, chainID int64) (proxy.Backend, error) {
		c, err := pool.Client(ctx, chainID)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, proxy.WithLogger(logger))

	recorder := &implRecorder{next: impls}
	sels, err := selectors.NewResolver(recorder,
		selectors.WithCapacity(cfg.CacheSize),
		selectors.WithFetchTimeout(config.ProbeTimeout),
		selectors.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	media := nft.NewClient(func(ctx context.Context, chainID int64) (nft.Caller, error) {
		c, err := pool.Client(ctx, chainID)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, nft.WithGateway(cfg.IPFSGateway), nft.WithLogger(logger))

	return &prober{
		reg:       reg,
		pool:      pool,
		impls:     impls,
		recorder:  recorder,
		selectors: sels,
		detector:  extensions.NewDetector(sels),
		media:     media,
	}, nil
}

// target resolves the --network flag (or the configured default) and a
// command-line address into a contract reference.
func (p *prober) target(address string) (chain.ContractRef, *chain.Chain, error) {
	chainName := network
	if chainName == "" {
		chainName = cfg.DefaultNetwork
	}
	c, err := p.reg.GetByName(chainName)
	if err != nil {
		return chain.ContractRef{}, nil, fmt.Errorf("unknown chain %q, run `w3probe network list` to see all chains", chainName)
	}
	addr, err := chain.ParseAddress(address)
	if err != nil {
		return chain.ContractRef{}, nil, err
	}
	return chain.ContractRef{ChainID: c.ID(cfg.NetworkMode), Address: addr}, c, nil
}

// rpcSource lists a chain's endpoints: keychain-held URLs first, then custom
// URLs from config, then the built-in ones for the chain ID's network.
func rpcSource(reg *chain.Registry, c *config.Config, store func() (secrets.Store, error)) rpc.URLSource {
	return func(chainID int64) ([]string, error) {
		ch, err := reg.GetByChainID(chainID)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chainID, err)
		}
		mode := "mainnet"
		if ch.ChainID != chainID {
			mode = "testnet"
		}

		var urls []string
		if refs := c.GetSecretRPCs(ch.Name); len(refs) > 0 {
			s, err := store()
			if err != nil {
				logger.Warn().Err(err).Str("chain", ch.Name).Msg("keychain unavailable, skipping secret RPCs")
			} else {
				resolved, missing := secrets.Resolve(s, refs)
				for _, ref := range missing {
					logger.Warn().Str("chain", ch.Name).Str("ref", ref).Msg("secret RPC missing from keychain")
				}
				urls = append(urls, resolved...)
			}
		}
		urls = append(urls, c.GetRPCs(ch.Name)...)
		urls = append(urls, ch.RPCs(mode)...)

		if len(urls) == 0 {
			return nil, fmt.Errorf("no RPCs configured for %s (%s), add one with `w3probe rpc add %s <url>`", ch.Name, mode, ch.Name)
		}
		return urls, nil
	}
}

var (
	keychainOnce  sync.Once
	keychainStore secrets.Store
	keychainErr   error
)

// keychain opens the OS keychain on first use. Commands that never touch a
// secret RPC never prompt for it.
func keychain() (secrets.Store, error) {
	keychainOnce.Do(func() {
		keychainStore, keychainErr = secrets.OpenKeychain(cfg.Dir())
	})
	return keychainStore, keychainErr
}

// probeOutcome is the last proxy resolution seen for a contract.
type probeOutcome struct {
	impl proxy.Implementation
	err  error
}

// implRecorder sits between the selector resolver and the proxy resolver
// and remembers each outcome, so commands can report the proxy kind and
// the no-code case from the same fetch that produced the selectors.
type implRecorder struct {
	next selectors.Fetcher
	seen sync.Map // ref key -> probeOutcome
}

func (r *implRecorder) ResolveImplementation(ctx context.Context, ref chain.ContractRef) (proxy.Implementation, error) {
	impl, err := r.next.ResolveImplementation(ctx, ref)
	r.seen.Store(ref.Key(), probeOutcome{impl: impl, err: err})
	return impl, err
}

// outcome returns the recorded result for ref, if a fetch has finished.
func (r *implRecorder) outcome(ref chain.ContractRef) (probeOutcome, bool) {
	v, ok := r.seen.Load(ref.Key())
	if !ok {
		return probeOutcome{}, false
	}
	return v.(probeOutcome), true
}

// readSelectors resolves ref's selectors together with the proxy outcome of
// the fetch behind them. It fails when that fetch failed or when ctx ended
// before it settled, so an unanswered read never looks like an empty
// contract.
func (p *prober) readSelectors(ctx context.Context, ref chain.ContractRef) ([]string, proxy.Implementation, error) {
	sels := p.selectors.Resolve(ctx, ref)
	outcome, ok := p.recorder.outcome(ref)
	switch {
	case ok && outcome.err != nil:
		return nil, proxy.Implementation{}, outcome.err
	case ctx.Err() != nil && !p.selectors.Cached(ref):
		return nil, proxy.Implementation{}, fmt.Errorf("gave up waiting for bytecode: %w", ctx.Err())
	case !ok:
		return nil, proxy.Implementation{}, errors.New("bytecode fetch did not complete")
	}
	return sels, outcome.impl, nil
}

// probeContext bounds one command's chain work.
func probeContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmdContext(cmd), config.ProbeTimeout)
}
