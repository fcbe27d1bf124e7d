package lockfence

import (
	"github.com/yourusername/lockfence/pkg/lockfence"
)

// Re-export main types for convenience
type (
	Config          = lockfence.Config
	FileConfig      = lockfence.FileConfig
	Limiter         = lockfence.Limiter
	Decision        = lockfence.Decision
	Manager         = lockfence.Manager
	Option          = lockfence.Option
	OverflowHandler = lockfence.OverflowHandler
	RateLimitError  = lockfence.RateLimitError
	Transport       = lockfence.Transport
)

// New creates a limiter for one shared budget
var New = lockfence.New

// NewManager creates a per-id limiter registry
var NewManager = lockfence.NewManager

// LoadConfigFromFile reads a YAML limiter configuration
var LoadConfigFromFile = lockfence.LoadConfigFromFile

// Convenience constructors for common windows
var (
	PerSecond = lockfence.PerSecond
	PerMinute = lockfence.PerMinute
	PerHour   = lockfence.PerHour
	PerDay    = lockfence.PerDay
	Burst     = lockfence.Burst
)

// Option constructors
var (
	WithStore           = lockfence.WithStore
	WithLocker          = lockfence.WithLocker
	WithOverflowHandler = lockfence.WithOverflowHandler
	WithMetrics         = lockfence.WithMetrics
	WithLockTTL         = lockfence.WithLockTTL
	WithClock           = lockfence.WithClock
)
