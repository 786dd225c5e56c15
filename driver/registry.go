package driver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Factory builds a client from a validated config.
type Factory func(cfg *Config) (redis.UniversalClient, error)

// Registry maps names to client factories. It is an explicit value: nothing
// registers itself at init time, so tests can build a registry holding fakes.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// NewDefaultRegistry returns a registry holding the standalone, cluster and
// failover go-redis factories.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(string(ModeStandalone), newStandalone)
	_ = r.Register(string(ModeCluster), newCluster)
	_ = r.Register(string(ModeFailover), newFailover)
	return r
}

// Register adds a factory. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("driver: register: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("driver: register: %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Names lists the registered factories, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open builds a client with the factory registered under name and wraps it in
// a Conn. An empty name falls back to cfg.Mode.
func (r *Registry) Open(name string, cfg *Config, opts ...ConnOption) (*Conn, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if name == "" {
		name = string(cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("driver: open: no factory registered for %q", name)
	}

	client, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("driver: open %s: %w", name, err)
	}
	return NewConn(client, opts...), nil
}

// ----------------------------------------------------------------------------
// go-redis factories
// ----------------------------------------------------------------------------

func newStandalone(cfg *Config) (redis.UniversalClient, error) {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addrs[0],
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Protocol:     cfg.Protocol,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}), nil
}

func newCluster(cfg *Config) (redis.UniversalClient, error) {
	if cfg.DB != 0 {
		return nil, fmt.Errorf("cluster mode does not support db %d", cfg.DB)
	}
	return redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:        cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Protocol:     cfg.Protocol,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}), nil
}

func newFailover(cfg *Config) (redis.UniversalClient, error) {
	return redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:    cfg.MasterName,
		SentinelAddrs: cfg.Addrs,
		Username:      cfg.Username,
		Password:      cfg.Password,
		DB:            cfg.DB,
		Protocol:      cfg.Protocol,
		DialTimeout:   cfg.DialTimeout,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
	}), nil
}
