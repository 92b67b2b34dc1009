// Package registry provides service registration and discovery for RPC
// server instances.
package registry

// ServiceInstance describes one advertised server endpoint.
type ServiceInstance struct {
	Addr    string
	Weight  int // weight for load balancing
	Version string
}

type Registry interface {
	Register(serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(serviceName string, addr string) error
	Discover(serviceName string) ([]ServiceInstance, error)
	Watch(serviceName string) <-chan []ServiceInstance
}
