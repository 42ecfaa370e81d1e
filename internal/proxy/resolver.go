// Package proxy follows proxy indirection to the bytecode that actually
// implements a contract's functions.
package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoCode is returned when the probed address holds no bytecode.
var ErrNoCode = errors.New("no contract code at address")

// Kind reports how the implementation was located.
type Kind string

const (
	KindDirect   Kind = "direct"
	KindMinimal  Kind = "minimal"
	KindEIP1967  Kind = "eip1967"
	KindBeacon   Kind = "beacon"
	KindLegacyOZ Kind = "legacy-oz"
	KindCall     Kind = "implementation()"
)

// Well-known proxy storage slots.
var (
	// keccak256("eip1967.proxy.implementation") - 1
	ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	// keccak256("eip1967.proxy.beacon") - 1
	BeaconSlot = common.HexToHash("0xa3f0ad74e5423aebfd80d3ef4346578335a9a72aeaee59ff6cb3582b35133d50")
	// keccak256("org.zeppelinos.proxy.implementation")
	LegacyOZSlot = common.HexToHash("0x7050c9e0f4ca769c69bd3a8ef740bc37934f8e2c036e5a723fd8ee048ed3f8c3")
)

// implementation()
var implementationSelector = hexutil.MustDecode("0x5c60da1b")

// Backend is the read-only chain access the resolver needs.
// *chain.EVMClient satisfies it.
type Backend interface {
	GetCode(ctx context.Context, address common.Address) ([]byte, error)
	GetStorageAt(ctx context.Context, address common.Address, slot common.Hash) (common.Hash, error)
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Dialer returns the Backend for a chain.
type Dialer func(ctx context.Context, chainID int64) (Backend, error)

// Static returns a Dialer that serves every chain from b.
func Static(b Backend) Dialer {
	return func(context.Context, int64) (Backend, error) { return b, nil }
}

// Implementation is the outcome of following a proxy.
type Implementation struct {
	// Address holds the bytecode below. It equals the probed address when
	// the contract is not a proxy or its target has no code.
	Address  common.Address
	Bytecode []byte
	Kind     Kind
}

// IsProxy reports whether the bytecode came from somewhere other than the
// probed address.
func (i Implementation) IsProxy() bool { return i.Kind != KindDirect }

// Resolver locates implementation bytecode.
type Resolver struct {
	dial Dialer
	log  zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// NewResolver creates a Resolver that reaches chains through dial.
func NewResolver(dial Dialer, opts ...Option) *Resolver {
	r := &Resolver{dial: dial, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveImplementation returns the bytecode behind ref, following minimal
// proxies, EIP-1967 beacons and implementation slots, the legacy
// OpenZeppelin slot, and finally an implementation() getter.
func (r *Resolver) ResolveImplementation(ctx context.Context, ref chain.ContractRef) (Implementation, error) {
	b, err := r.dial(ctx, ref.ChainID)
	if err != nil {
		return Implementation{}, err
	}

	var (
		code   []byte
		beacon common.Address
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := b.GetCode(gctx, ref.Address)
		if err != nil {
			return fmt.Errorf("fetching code for %s: %w", ref, err)
		}
		code = c
		return nil
	})
	g.Go(func() error {
		beacon = r.slotAddress(gctx, b, ref.Address, BeaconSlot)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Implementation{}, err
	}
	if len(code) == 0 {
		return Implementation{}, fmt.Errorf("%s: %w", ref, ErrNoCode)
	}

	direct := Implementation{Address: ref.Address, Bytecode: code, Kind: KindDirect}

	if target, ok := MinimalProxyTarget(code); ok {
		return r.follow(ctx, b, direct, target, KindMinimal), nil
	}

	if beacon != (common.Address{}) {
		if target := r.callAddress(ctx, b, beacon); target != (common.Address{}) {
			return r.follow(ctx, b, direct, target, KindBeacon), nil
		}
	}

	target, kind := r.fromSlots(ctx, b, ref.Address)
	if target == (common.Address{}) {
		return direct, nil
	}
	return r.follow(ctx, b, direct, target, kind), nil
}

// fromSlots reads both implementation slots and the implementation() getter
// in parallel. The first non-zero answer, in that order, wins.
func (r *Resolver) fromSlots(ctx context.Context, b Backend, addr common.Address) (common.Address, Kind) {
	var found [3]common.Address
	kinds := [3]Kind{KindEIP1967, KindLegacyOZ, KindCall}

	var g errgroup.Group
	g.Go(func() error { found[0] = r.slotAddress(ctx, b, addr, ImplementationSlot); return nil })
	g.Go(func() error { found[1] = r.slotAddress(ctx, b, addr, LegacyOZSlot); return nil })
	g.Go(func() error { found[2] = r.callAddress(ctx, b, addr); return nil })
	g.Wait() //nolint:errcheck // probes never fail

	for i, a := range found {
		if a != (common.Address{}) {
			return a, kinds[i]
		}
	}
	return common.Address{}, ""
}

// follow loads the target's code, keeping the proxy's own code when the
// target has none.
func (r *Resolver) follow(ctx context.Context, b Backend, direct Implementation, target common.Address, kind Kind) Implementation {
	code, err := b.GetCode(ctx, target)
	if err != nil || len(code) == 0 {
		r.log.Debug().Err(err).Str("proxy", direct.Address.Hex()).Str("target", target.Hex()).
			Msg("proxy target has no code, using proxy bytecode")
		return direct
	}
	return Implementation{Address: target, Bytecode: code, Kind: kind}
}

func (r *Resolver) slotAddress(ctx context.Context, b Backend, addr common.Address, slot common.Hash) common.Address {
	word, err := b.GetStorageAt(ctx, addr, slot)
	if err != nil {
		r.log.Debug().Err(err).Str("address", addr.Hex()).Str("slot", slot.Hex()).Msg("storage read failed")
		return common.Address{}
	}
	return common.BytesToAddress(word[12:])
}

func (r *Resolver) callAddress(ctx context.Context, b Backend, addr common.Address) common.Address {
	out, err := b.CallContract(ctx, addr, implementationSelector)
	if err != nil || len(out) < 32 {
		return common.Address{}
	}
	return common.BytesToAddress(out[12:32])
}
