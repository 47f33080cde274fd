// Package service provides the lifecycle contract for long-lived subsystems and the hub that orders them.
package service

// Service defines the lifecycle interface for infrastructure subsystems
// Services manage long-lived resources: audio backend, figure catalogue, status registry
//
// Lifecycle:
//  1. Construction (via New* constructor)
//  2. Init(args...) - configuration from parsed flags and config file
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	// Return nil or empty slice if no dependencies
	Dependencies() []string

	// Init configures the service from optional args
	// Args are service-specific (assets dir, mute state, volume)
	Init(args ...any) error

	// Start begins service operation (launches goroutines if any)
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
