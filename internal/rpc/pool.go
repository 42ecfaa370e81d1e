package rpc

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"golang.org/x/sync/singleflight"
)

// URLSource lists candidate RPC URLs for a chain ID, best first.
type URLSource func(chainID int64) ([]string, error)

// Pool hands out one EVM client per chain, benchmarking that chain's
// endpoints the first time it is asked for.
type Pool struct {
	algo   Algorithm
	source URLSource

	mu      sync.RWMutex
	clients map[int64]*chain.EVMClient
	group   singleflight.Group
}

// NewPool creates a pool that picks endpoints with algo.
func NewPool(algo Algorithm, source URLSource) *Pool {
	return &Pool{
		algo:    algo,
		source:  source,
		clients: make(map[int64]*chain.EVMClient),
	}
}

// Client returns the chosen client for chainID. Concurrent first calls for
// one chain share a single benchmark.
func (p *Pool) Client(ctx context.Context, chainID int64) (*chain.EVMClient, error) {
	p.mu.RLock()
	c, ok := p.clients[chainID]
	p.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := p.group.Do(strconv.FormatInt(chainID, 10), func() (interface{}, error) {
		p.mu.RLock()
		c, ok := p.clients[chainID]
		p.mu.RUnlock()
		if ok {
			return c, nil
		}

		urls, err := p.source(chainID)
		if err != nil {
			return nil, err
		}
		url, err := BestEVM(ctx, urls, p.algo)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chainID, err)
		}
		c = chain.NewEVMClient(url)
		p.mu.Lock()
		p.clients[chainID] = c
		p.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*chain.EVMClient), nil
}
