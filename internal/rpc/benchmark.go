package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"golang.org/x/sync/errgroup"
)

// maxParallelPings bounds concurrent pings when a chain lists many RPCs.
const maxParallelPings = 8

// BenchmarkResult holds the result of a single endpoint benchmark.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// BenchmarkEVM pings all EVM RPC URLs in parallel and returns results in
// input order. A failed ping is recorded in the result, never returned.
func BenchmarkEVM(ctx context.Context, urls []string) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPings)
	for i, url := range urls {
		g.Go(func() error {
			latency, block, err := chain.NewEVMClient(url).Ping(gctx)
			results[i] = BenchmarkResult{URL: url, Latency: latency, BlockNumber: block, Err: err}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	return results
}

// ResultsToEndpoints converts benchmark results to picker Endpoints.
// All returned endpoints have Checked: true since they have been actively tested.
func ResultsToEndpoints(results []BenchmarkResult) []Endpoint {
	endpoints := make([]Endpoint, 0, len(results))
	for _, r := range results {
		endpoints = append(endpoints, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
			Checked:     true,
		})
	}
	return endpoints
}

// BestEVM runs a benchmark and returns the best EVM endpoint URL using the given algorithm.
func BestEVM(ctx context.Context, urls []string, algo Algorithm) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}
	if len(urls) == 1 {
		return urls[0], nil
	}

	endpoints := ResultsToEndpoints(BenchmarkEVM(ctx, urls))
	winner, err := NewPicker(algo).Pick(endpoints)
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}

// HealthCheck pings a single EVM RPC and reports whether it is usable.
// A node is healthy if it responds within 5s and its head is within
// staleBlockThreshold of bestBlock (pass 0 to skip the recency check).
func HealthCheck(ctx context.Context, url string, bestBlock uint64) (Endpoint, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	latency, blockNum, err := chain.NewEVMClient(url).Ping(timeoutCtx)
	ep := Endpoint{
		URL:         url,
		Latency:     latency,
		BlockNumber: blockNum,
		Healthy:     err == nil,
		Checked:     true,
	}
	if err == nil && bestBlock > blockNum && bestBlock-blockNum > staleBlockThreshold {
		ep.Healthy = false
	}
	return ep, err
}
