// Package loadbalance provides strategies for spreading client calls across
// discovered server instances.
//
// Three strategies:
//   - RoundRobin:      stateless servers of similar capacity
//   - WeightedRandom:  heterogeneous instances (different CPU/memory)
//   - ConsistentHash:  key affinity (e.g. the file handler with local caches)
package loadbalance

import "objrpc/registry"

// Balancer picks one instance per call. Implementations must be
// goroutine-safe; Pick runs on every RPC.
type Balancer interface {
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name identifies the strategy in logs.
	Name() string
}
