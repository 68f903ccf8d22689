// Package limiter defines interfaces and implementations for registration
// rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls how often a (project, ip) pair may register.
type Limiter interface {
	// Allow reports whether registration is currently allowed and an optional
	// retry-after duration.
	Allow(ctx context.Context, projectID string, ipHash []byte) (bool, time.Duration, error)
	// Record counts an attempt against the current window.
	Record(ctx context.Context, projectID string, ipHash []byte) error
}
