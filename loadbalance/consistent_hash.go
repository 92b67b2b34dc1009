package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"objrpc/registry"
)

// ConsistentHashBalancer maps keys to instances on a hash ring, so the same
// key lands on the same instance until the ring changes. Each real instance
// contributes replicas virtual nodes; without them a handful of instances
// can cluster on the ring and skew the load badly.
type ConsistentHashBalancer struct {
	replicas int
	ring     []uint32 // sorted hashes on the ring
	nodes    map[uint32]*registry.ServiceInstance
}

// NewConsistentHashBalancer creates a ring with 100 virtual nodes per
// instance, enough for statistically even spread.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		nodes:    make(map[uint32]*registry.ServiceInstance),
	}
}

// Add places an instance onto the ring under its virtual node hashes.
func (b *ConsistentHashBalancer) Add(instance *registry.ServiceInstance) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", instance.Addr, i)))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	// The ring stays sorted for binary search in PickKey.
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// PickKey finds the instance owning key: the first node clockwise from the
// key's hash, wrapping to the start of the ring when needed.
//
// Key-based selection doesn't fit the Balancer interface, which picks from a
// flat instance list; callers use this type directly.
func (b *ConsistentHashBalancer) PickKey(key string) (*registry.ServiceInstance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("no instances available")
	}

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}
	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
