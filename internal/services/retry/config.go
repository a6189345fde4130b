// Package retry is the Retry Driver of spec.md §4.5: it wraps one
// Movement Orchestrator call with bounded-attempt retry on transient
// conflict classes, using exponential backoff with jitter. Grounded
// on the shape the monorepo's retry-config test documents
// (pkg/mretry/config_test.go survives in the retrieval pack as a
// builder-pattern Config with With* setters and a Validate method);
// this is a from-scratch implementation against that contract.
package retry

import (
	"fmt"

	"github.com/ironvault/walletledger/internal/constant"
)

// Config is the Retry Driver's tunable policy (spec.md §4.5, §6).
type Config struct {
	MaxAttempts   int
	BaseBackoffMs int
	MaxBackoffMs  int
	JitterMs      int
}

// DefaultConfig matches spec.md §6's named defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   constant.DefaultMaxAttempts,
		BaseBackoffMs: constant.DefaultBaseBackoffMs,
		MaxBackoffMs:  constant.DefaultMaxBackoffMs,
		JitterMs:      constant.DefaultJitterMs,
	}
}

// WithMaxAttempts overrides the attempt ceiling.
func (c Config) WithMaxAttempts(n int) Config {
	c.MaxAttempts = n
	return c
}

// WithBaseBackoffMs overrides the base backoff.
func (c Config) WithBaseBackoffMs(ms int) Config {
	c.BaseBackoffMs = ms
	return c
}

// WithJitterMs overrides the jitter ceiling.
func (c Config) WithJitterMs(ms int) Config {
	c.JitterMs = ms
	return c
}

// Validate rejects a nonsensical policy before it is ever used.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}

	if c.BaseBackoffMs < 0 {
		return fmt.Errorf("base backoff must not be negative, got %d", c.BaseBackoffMs)
	}

	if c.JitterMs < 0 {
		return fmt.Errorf("jitter must not be negative, got %d", c.JitterMs)
	}

	if c.MaxBackoffMs > 0 && c.MaxBackoffMs < c.BaseBackoffMs {
		return fmt.Errorf("max backoff %d must not be smaller than base backoff %d", c.MaxBackoffMs, c.BaseBackoffMs)
	}

	return nil
}
