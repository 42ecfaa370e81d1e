// Package selectors answers "which functions does this contract implement?"
// for deployed EVM contracts without an ABI. Selectors are read from the
// dispatcher of the implementation bytecode and cached per contract.
package selectors

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds one shared bytecode fetch.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher returns the bytecode that executes for a contract, following
// proxies. *proxy.Resolver satisfies it.
type Fetcher interface {
	ResolveImplementation(ctx context.Context, ref chain.ContractRef) (proxy.Implementation, error)
}

// Resolver resolves and caches the selector set of contracts. It is safe
// for concurrent use; concurrent lookups of one uncached contract share a
// single fetch.
type Resolver struct {
	fetcher      Fetcher
	extract      Extractor
	cache        *Cache
	flights      singleflight.Group
	fetchTimeout time.Duration
	log          zerolog.Logger

	// gens counts Forget calls per key. A fetch only stores its result if
	// the generation it started under is still current.
	mu   sync.Mutex
	gens map[string]uint64
}

type options struct {
	capacity     int
	extract      Extractor
	fetchTimeout time.Duration
	log          zerolog.Logger
}

// Option configures a Resolver.
type Option func(*options)

// WithCapacity sets the maximum number of cached contracts.
func WithCapacity(n int) Option { return func(o *options) { o.capacity = n } }

// WithExtractor replaces FromBytecode.
func WithExtractor(e Extractor) Option { return func(o *options) { o.extract = e } }

// WithFetchTimeout bounds each shared fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option { return func(o *options) { o.fetchTimeout = d } }

// WithLogger sets the logger used for fetch failures and evictions.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// NewResolver creates a Resolver backed by fetcher.
func NewResolver(fetcher Fetcher, opts ...Option) (*Resolver, error) {
	o := options{
		capacity:     DefaultCapacity,
		extract:      FromBytecode,
		fetchTimeout: DefaultFetchTimeout,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := NewCache(o.capacity, func(key string) {
		o.log.Trace().Str("key", key).Msg("selector cache full, evicted least recently used")
	})
	if err != nil {
		return nil, fmt.Errorf("selector cache: %w", err)
	}

	return &Resolver{
		fetcher:      fetcher,
		extract:      o.extract,
		cache:        cache,
		fetchTimeout: o.fetchTimeout,
		log:          o.log,
		gens:         make(map[string]uint64),
	}, nil
}

// Resolve returns the selectors implemented by ref, or an empty result if
// the bytecode cannot be fetched or parsed. Only successful lookups are
// cached, so a failed contract is retried on the next call.
//
// A caller whose ctx ends first gets an empty result; the shared fetch keeps
// running for any other waiters.
func (r *Resolver) Resolve(ctx context.Context, ref chain.ContractRef) []string {
	key := ref.Key()
	if sels, ok := r.cache.Get(key); ok {
		return slices.Clone(sels)
	}

	ch := r.flights.DoChan(key, func() (interface{}, error) {
		// Settled between our miss and joining the flight.
		if sels, ok := r.cache.Peek(key); ok {
			return sels, nil
		}
		gen := r.generation(key)
		sels, err := r.load(context.WithoutCancel(ctx), ref)
		if err != nil {
			r.log.Debug().Err(err).Str("contract", key).Msg("selector resolution failed")
			return nil, err
		}
		r.store(key, gen, sels)
		return sels, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil
		}
		return slices.Clone(res.Val.([]string))
	case <-ctx.Done():
		return nil
	}
}

func (r *Resolver) generation(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[key]
}

// store caches sels unless key was forgotten while they were being fetched.
func (r *Resolver) store(key string, gen uint64, sels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[key] != gen {
		r.log.Debug().Str("contract", key).Msg("dropping selectors fetched before Forget")
		return
	}
	r.cache.Add(key, sels)
}

func (r *Resolver) load(ctx context.Context, ref chain.ContractRef) (sels []string, err error) {
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	impl, err := r.fetcher.ResolveImplementation(ctx, ref)
	if err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			sels, err = nil, fmt.Errorf("extracting selectors for %s: %v", ref, p)
		}
	}()
	sels = r.extract(impl.Bytecode)
	if sels == nil {
		sels = []string{}
	}
	r.log.Debug().Str("contract", ref.Key()).Str("implementation", impl.Address.Hex()).
		Str("kind", string(impl.Kind)).Int("selectors", len(sels)).Msg("resolved selectors")
	return sels, nil
}

// HasSelector reports whether ref implements method, given either as a raw
// selector ("0x70a08231") or a signature ("balanceOf(address owner)").
// Unparseable methods and unreachable contracts report false.
func (r *Resolver) HasSelector(ctx context.Context, ref chain.ContractRef, method string) bool {
	sel, err := SelectorOf(method)
	if err != nil {
		r.log.Debug().Err(err).Str("method", method).Msg("unusable method")
		return false
	}
	return slices.Contains(r.Resolve(ctx, ref), sel)
}

// HasMethod is HasSelector for a parsed ABI method.
func (r *Resolver) HasMethod(ctx context.Context, ref chain.ContractRef, m abi.Method) bool {
	return slices.Contains(r.Resolve(ctx, ref), hexutil.Encode(m.ID))
}

// Forget evicts ref so the next Resolve fetches fresh bytecode, e.g. after
// a proxy upgrade. A fetch already in flight for ref still answers its
// waiters but no longer fills the cache. It reports whether an entry was
// present.
func (r *Resolver) Forget(ref chain.ContractRef) bool {
	key := ref.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[key]++
	r.flights.Forget(key)
	return r.cache.Remove(key)
}

// Refresh forgets ref and resolves it again.
func (r *Resolver) Refresh(ctx context.Context, ref chain.ContractRef) []string {
	r.Forget(ref)
	return r.Resolve(ctx, ref)
}

// Cached reports whether ref currently has a cache entry.
func (r *Resolver) Cached(ref chain.ContractRef) bool { return r.cache.Contains(ref.Key()) }

// Len returns the number of cached contracts.
func (r *Resolver) Len() int { return r.cache.Len() }
