package selectors

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves bytecode per address and counts calls. When gate is
// non-nil every fetch blocks until it is closed.
type fakeFetcher struct {
	mu      sync.Mutex
	code    map[common.Address][]byte
	fail    map[common.Address]error
	calls   atomic.Int32
	started chan struct{}
	gate    chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		code: make(map[common.Address][]byte),
		fail: make(map[common.Address]error),
	}
}

func (f *fakeFetcher) set(a common.Address, code []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code[a] = code
	delete(f.fail, a)
}

func (f *fakeFetcher) setErr(a common.Address, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[a] = err
}

func (f *fakeFetcher) ResolveImplementation(ctx context.Context, ref chain.ContractRef) (proxy.Implementation, error) {
	f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return proxy.Implementation{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[ref.Address]; err != nil {
		return proxy.Implementation{}, err
	}
	code, ok := f.code[ref.Address]
	if !ok {
		return proxy.Implementation{}, proxy.ErrNoCode
	}
	return proxy.Implementation{Address: ref.Address, Bytecode: code, Kind: proxy.KindDirect}, nil
}

var (
	tokenAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	nftAddr   = common.HexToAddress("0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D")
	otherAddr = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func tokenRef() chain.ContractRef { return chain.ContractRef{ChainID: 1, Address: tokenAddr} }

func erc20Code() []byte {
	return dispatcher("0x06fdde03", "0x095ea7b3", "0x18160ddd", "0x313ce567", "0x70a08231", "0xa9059cbb")
}

func newTestResolver(t *testing.T, f Fetcher, opts ...Option) *Resolver {
	t.Helper()
	r, err := NewResolver(f, opts...)
	require.NoError(t, err)
	return r
}

// Scenario A: a fresh resolver finds balanceOf on an ERC-20.
func TestHasSelectorFindsBalanceOf(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	assert.True(t, r.HasSelector(context.Background(), tokenRef(), "0x70a08231"))
	assert.True(t, r.HasSelector(context.Background(), tokenRef(), "balanceOf(address owner)"))
	assert.False(t, r.HasSelector(context.Background(), tokenRef(), "ownerOf(uint256)"))
	assert.Equal(t, int32(1), f.calls.Load())
}

// Scenario C: textual signatures in any accepted form hash to decimals().
func TestHasSelectorSignatureForms(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	for _, m := range []string{"decimals()", "function decimals() view returns (uint8)", "0x313CE567"} {
		assert.True(t, r.HasSelector(context.Background(), tokenRef(), m), m)
	}
	assert.False(t, r.HasSelector(context.Background(), tokenRef(), "decimals("))
}

func TestHasMethod(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	parsed, err := abi.JSON(strings.NewReader(`[
		{"type":"function","name":"balanceOf","stateMutability":"view",
		 "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"ownerOf","stateMutability":"view",
		 "inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
	]`))
	require.NoError(t, err)

	assert.True(t, r.HasMethod(context.Background(), tokenRef(), parsed.Methods["balanceOf"]))
	assert.False(t, r.HasMethod(context.Background(), tokenRef(), parsed.Methods["ownerOf"]))
}

// Cache correctness: a second call is served without a fetch and returns
// the same set.
func TestResolveCachesSuccess(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	first := r.Resolve(context.Background(), tokenRef())
	second := r.Resolve(context.Background(), tokenRef())

	assert.Equal(t, first, second)
	assert.Len(t, first, 6)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, 1, r.Len())
}

func TestResolveKeyIgnoresAddressCase(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	lower := chain.ContractRef{ChainID: 1, Address: common.HexToAddress(strings.ToLower(tokenAddr.Hex()))}
	r.Resolve(context.Background(), tokenRef())
	r.Resolve(context.Background(), lower)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestResolveKeyIncludesChain(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	r.Resolve(context.Background(), tokenRef())
	r.Resolve(context.Background(), chain.ContractRef{ChainID: 8453, Address: tokenAddr})
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 2, r.Len())
}

func TestResolveReturnsCopy(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	r := newTestResolver(t, f)

	got := r.Resolve(context.Background(), tokenRef())
	got[0] = "0xdeadbeef"
	assert.NotContains(t, r.Resolve(context.Background(), tokenRef()), "0xdeadbeef")
}

// De-duplication: concurrent callers for one uncached key share one fetch.
func TestResolveConcurrentCallersShareFetch(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	f.started = make(chan struct{}, 1)
	f.gate = make(chan struct{})
	r := newTestResolver(t, f)

	const callers = 16
	results := make([][]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), tokenRef())
		}()
	}

	<-f.started
	time.Sleep(20 * time.Millisecond) // let the other callers join the flight
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, res := range results {
		assert.Equal(t, results[0], res)
		assert.Contains(t, res, "0x70a08231")
	}
}

// Failure non-caching (Scenario B): fail, then succeed on retry.
func TestResolveDoesNotCacheFailure(t *testing.T) {
	f := newFakeFetcher()
	f.setErr(tokenAddr, errors.New("connection refused"))
	r := newTestResolver(t, f)

	assert.Empty(t, r.Resolve(context.Background(), tokenRef()))
	assert.False(t, r.Cached(tokenRef()))
	assert.Equal(t, 0, r.Len())

	f.set(tokenAddr, erc20Code())
	assert.Contains(t, r.Resolve(context.Background(), tokenRef()), "0x70a08231")
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestResolveEOAIsNotCached(t *testing.T) {
	f := newFakeFetcher()
	r := newTestResolver(t, f)

	assert.Empty(t, r.Resolve(context.Background(), chain.ContractRef{ChainID: 1, Address: otherAddr}))
	assert.Equal(t, 0, r.Len())
}

// Graceful degradation: failures surface as "not supported", never panic.
func TestHasSelectorUnreachableContractIsFalse(t *testing.T) {
	f := newFakeFetcher()
	f.setErr(tokenAddr, errors.New("chain unreachable"))
	r := newTestResolver(t, f)

	assert.NotPanics(t, func() {
		assert.False(t, r.HasSelector(context.Background(), tokenRef(), "balanceOf(address)"))
	})
}

func TestResolveExtractorPanicIsNotCached(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())

	var n atomic.Int32
	extract := func(code []byte) []string {
		if n.Add(1) == 1 {
			panic("malformed bytecode")
		}
		return FromBytecode(code)
	}
	r := newTestResolver(t, f, WithExtractor(extract))

	assert.Empty(t, r.Resolve(context.Background(), tokenRef()))
	assert.False(t, r.Cached(tokenRef()))
	assert.Contains(t, r.Resolve(context.Background(), tokenRef()), "0xa9059cbb")
}

func TestResolveEmptySelectorSetIsCached(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, []byte{0x60, 0x00, 0x80, 0xfd})
	r := newTestResolver(t, f)

	assert.Empty(t, r.Resolve(context.Background(), tokenRef()))
	assert.True(t, r.Cached(tokenRef()))
	r.Resolve(context.Background(), tokenRef())
	assert.Equal(t, int32(1), f.calls.Load())
}

// Capacity bound: the least recently used key is the one evicted.
func TestResolveEvictsLeastRecentlyUsed(t *testing.T) {
	f := newFakeFetcher()
	for _, a := range []common.Address{tokenAddr, nftAddr, otherAddr} {
		f.set(a, erc20Code())
	}
	r := newTestResolver(t, f, WithCapacity(2))
	ctx := context.Background()
	ref := func(a common.Address) chain.ContractRef { return chain.ContractRef{ChainID: 1, Address: a} }

	r.Resolve(ctx, ref(tokenAddr))
	r.Resolve(ctx, ref(nftAddr))
	r.Resolve(ctx, ref(tokenAddr)) // token becomes most recent
	r.Resolve(ctx, ref(otherAddr))

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Cached(ref(tokenAddr)))
	assert.False(t, r.Cached(ref(nftAddr)))
	assert.True(t, r.Cached(ref(otherAddr)))
}

func TestNewResolverRejectsBadCapacity(t *testing.T) {
	_, err := NewResolver(newFakeFetcher(), WithCapacity(0))
	assert.Error(t, err)
}

func TestResolveCancelledWaiterGetsEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	f.started = make(chan struct{}, 1)
	f.gate = make(chan struct{})
	r := newTestResolver(t, f)

	done := make(chan []string)
	go func() { done <- r.Resolve(context.Background(), tokenRef()) }()
	<-f.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, r.Resolve(ctx, tokenRef()))

	close(f.gate)
	assert.Contains(t, <-done, "0x70a08231")
	assert.Equal(t, int32(1), f.calls.Load())
	assert.True(t, r.Cached(tokenRef()))
}

func TestResolveFirstCallerCancelDoesNotAbortFetch(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	f.started = make(chan struct{}, 1)
	f.gate = make(chan struct{})
	r := newTestResolver(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan []string)
	go func() { first <- r.Resolve(ctx, tokenRef()) }()
	<-f.started

	second := make(chan []string)
	go func() { second <- r.Resolve(context.Background(), tokenRef()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.Empty(t, <-first)

	close(f.gate)
	assert.Contains(t, <-second, "0x70a08231")
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestFetchTimeoutBoundsSharedFetch(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, erc20Code())
	f.gate = make(chan struct{}) // never released
	r := newTestResolver(t, f, WithFetchTimeout(30*time.Millisecond))

	assert.Empty(t, r.Resolve(context.Background(), tokenRef()))
	assert.False(t, r.Cached(tokenRef()))
}

func TestForgetAndRefresh(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, dispatcher("0x70a08231"))
	r := newTestResolver(t, f)
	ctx := context.Background()

	assert.Equal(t, []string{"0x70a08231"}, r.Resolve(ctx, tokenRef()))

	// Simulate a proxy upgrade: the cached set is stale until refreshed.
	f.set(tokenAddr, dispatcher("0x70a08231", "0x3659cfe6"))
	assert.Equal(t, []string{"0x70a08231"}, r.Resolve(ctx, tokenRef()))

	assert.Equal(t, []string{"0x70a08231", "0x3659cfe6"}, r.Refresh(ctx, tokenRef()))
	assert.True(t, r.Forget(tokenRef()))
	assert.False(t, r.Forget(tokenRef()))
	assert.Equal(t, 0, r.Len())
}

func TestForgetDuringFetchKeepsEntryOut(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, dispatcher("0x70a08231"))
	f.started = make(chan struct{}, 1)
	f.gate = make(chan struct{})
	r := newTestResolver(t, f)

	done := make(chan []string)
	go func() { done <- r.Resolve(context.Background(), tokenRef()) }()
	<-f.started

	assert.False(t, r.Forget(tokenRef()))
	close(f.gate)

	// Waiters of the old fetch still get its answer.
	assert.Equal(t, []string{"0x70a08231"}, <-done)
	assert.False(t, r.Cached(tokenRef()))
	assert.Equal(t, 0, r.Len())
}

// stagedFetcher answers call n with codes[n] once gates[n] is closed.
type stagedFetcher struct {
	calls   atomic.Int32
	started chan int
	gates   []chan struct{}
	codes   [][]byte
}

func (s *stagedFetcher) ResolveImplementation(ctx context.Context, ref chain.ContractRef) (proxy.Implementation, error) {
	n := int(s.calls.Add(1)) - 1
	s.started <- n
	select {
	case <-s.gates[n]:
	case <-ctx.Done():
		return proxy.Implementation{}, ctx.Err()
	}
	return proxy.Implementation{Address: ref.Address, Bytecode: s.codes[n], Kind: proxy.KindDirect}, nil
}

func TestRefreshDuringFetchKeepsFreshSet(t *testing.T) {
	stale := dispatcher("0x70a08231")
	fresh := dispatcher("0x70a08231", "0x3659cfe6")
	f := &stagedFetcher{
		started: make(chan int, 2),
		gates:   []chan struct{}{make(chan struct{}), make(chan struct{})},
		codes:   [][]byte{stale, fresh},
	}
	r := newTestResolver(t, f)
	ctx := context.Background()

	old := make(chan []string)
	go func() { old <- r.Resolve(ctx, tokenRef()) }()
	require.Equal(t, 0, <-f.started)

	refreshed := make(chan []string)
	go func() { refreshed <- r.Refresh(ctx, tokenRef()) }()
	require.Equal(t, 1, <-f.started)

	// The refresh settles first, then the stale fetch finishes.
	close(f.gates[1])
	assert.Equal(t, []string{"0x70a08231", "0x3659cfe6"}, <-refreshed)
	close(f.gates[0])
	assert.Equal(t, []string{"0x70a08231"}, <-old)

	assert.Equal(t, []string{"0x70a08231", "0x3659cfe6"}, r.Resolve(ctx, tokenRef()))
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestResolveAfterForgetCachesAgain(t *testing.T) {
	f := newFakeFetcher()
	f.set(tokenAddr, dispatcher("0x70a08231"))
	r := newTestResolver(t, f)
	ctx := context.Background()

	r.Resolve(ctx, tokenRef())
	require.True(t, r.Forget(tokenRef()))
	r.Resolve(ctx, tokenRef())
	assert.True(t, r.Cached(tokenRef()))
	assert.Equal(t, int32(2), f.calls.Load())
}
