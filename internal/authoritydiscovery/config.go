package authoritydiscovery

import (
	"errors"
	"time"

	"github.com/dep2p/authority-discovery/pkg/types"
)

// Config controls the worker's tunable constants. All of them are
// part of the contract in SPEC_FULL.md §6 even though their exact
// values are implementation choices.
type Config struct {
	// Role selects whether this node publishes its own addresses
	// (Authority) or only resolves others (Sentry).
	Role types.Role

	// MaxAddressesPerAuthority caps how many addresses the cache
	// retains per authority.
	MaxAddressesPerAuthority int

	// MaxInFlightLookups caps concurrent outstanding DHT gets.
	MaxInFlightLookups int

	// MaxCachedAuthorities bounds the number of distinct authorities
	// the address cache retains across a long-running session, on top
	// of the explicit retainAuthorities pruning on each refill tick.
	MaxCachedAuthorities int

	// PublishInterval is the steady-state cadence of C3's publish
	// tick.
	PublishInterval time.Duration

	// InitialPublishDelay delays the first publish tick after
	// startup.
	InitialPublishDelay time.Duration

	// RefillInterval is the steady-state cadence of C4's refill tick.
	RefillInterval time.Duration

	// ServiceChannelBuffer bounds the in-process service-request
	// channel (see SPEC_FULL.md §5).
	ServiceChannelBuffer int

	// PriorityGroupID names the peer set handed to the network layer.
	PriorityGroupID string
}

// DefaultConfig returns the suggested constants from SPEC_FULL.md §4
// and §6.
func DefaultConfig() *Config {
	return &Config{
		Role:                     types.RoleSentry,
		MaxAddressesPerAuthority: 10,
		MaxInFlightLookups:       8,
		MaxCachedAuthorities:     1000,
		PublishInterval:          10 * time.Minute,
		InitialPublishDelay:      30 * time.Second,
		RefillInterval:           10 * time.Minute,
		ServiceChannelBuffer:     8,
		PriorityGroupID:          "authorities",
	}
}

// Validate checks that Config holds a usable combination of values.
func (c *Config) Validate() error {
	if c.MaxAddressesPerAuthority <= 0 {
		return errors.New("authoritydiscovery: max addresses per authority must be positive")
	}
	if c.MaxInFlightLookups <= 0 {
		return errors.New("authoritydiscovery: max in-flight lookups must be positive")
	}
	if c.MaxCachedAuthorities <= 0 {
		return errors.New("authoritydiscovery: max cached authorities must be positive")
	}
	if c.PublishInterval <= 0 {
		return errors.New("authoritydiscovery: publish interval must be positive")
	}
	if c.RefillInterval <= 0 {
		return errors.New("authoritydiscovery: refill interval must be positive")
	}
	if c.InitialPublishDelay < 0 {
		return errors.New("authoritydiscovery: initial publish delay must not be negative")
	}
	if c.ServiceChannelBuffer < 0 {
		return errors.New("authoritydiscovery: service channel buffer must not be negative")
	}
	if c.PriorityGroupID == "" {
		return errors.New("authoritydiscovery: priority group id must not be empty")
	}
	return nil
}

// ConfigOption mutates a Config built from DefaultConfig.
type ConfigOption func(*Config)

func WithRole(role types.Role) ConfigOption {
	return func(c *Config) { c.Role = role }
}

func WithMaxAddressesPerAuthority(n int) ConfigOption {
	return func(c *Config) { c.MaxAddressesPerAuthority = n }
}

func WithMaxInFlightLookups(n int) ConfigOption {
	return func(c *Config) { c.MaxInFlightLookups = n }
}

func WithMaxCachedAuthorities(n int) ConfigOption {
	return func(c *Config) { c.MaxCachedAuthorities = n }
}

func WithPublishInterval(d time.Duration) ConfigOption {
	return func(c *Config) { c.PublishInterval = d }
}

func WithInitialPublishDelay(d time.Duration) ConfigOption {
	return func(c *Config) { c.InitialPublishDelay = d }
}

func WithRefillInterval(d time.Duration) ConfigOption {
	return func(c *Config) { c.RefillInterval = d }
}

func WithServiceChannelBuffer(n int) ConfigOption {
	return func(c *Config) { c.ServiceChannelBuffer = n }
}

func WithPriorityGroupID(id string) ConfigOption {
	return func(c *Config) { c.PriorityGroupID = id }
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...ConfigOption) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}
