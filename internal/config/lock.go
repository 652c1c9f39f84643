package config

import "time"

// LockConfig controls the Redis lock that serializes booking creation
// per resource.  With the lock disabled, two concurrent requests for
// overlapping windows may both pass the conflict check.
type LockConfig struct {
	Enabled       bool
	TTL           time.Duration // lock lease; must exceed a create round trip
	WaitTimeout   time.Duration // how long a request waits for the lock
	RetryInterval time.Duration
	Prefix        string
}

// LoadLockConfig reads BOOKING_LOCK_* variables.
func LoadLockConfig() LockConfig {
	cfg := LockConfig{
		Enabled:       envBool("BOOKING_LOCK_ENABLED", true),
		TTL:           envDur("BOOKING_LOCK_TTL", 5*time.Second),
		WaitTimeout:   envDur("BOOKING_LOCK_WAIT", 2*time.Second),
		RetryInterval: envDur("BOOKING_LOCK_RETRY", 50*time.Millisecond),
		Prefix:        envStr("BOOKING_LOCK_PREFIX", "cowork:lock:resource"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	return cfg
}
