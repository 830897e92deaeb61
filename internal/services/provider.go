package services

import "context"

// Provider is an external dependency whose availability is reported by /ready
type Provider interface {
	// Type returns the dependency type name
	Type() string

	// HealthCheck checks if the dependency is available
	HealthCheck(ctx context.Context) error
}

// BaseProvider provides common functionality for providers
type BaseProvider struct {
	serviceType string
}

// Type returns the service type
func (p *BaseProvider) Type() string {
	return p.serviceType
}

// CheckProvider adapts a ping function into a Provider
type CheckProvider struct {
	BaseProvider
	check func(ctx context.Context) error
}

// NewCheckProvider creates a provider of the given type backed by check
func NewCheckProvider(serviceType string, check func(ctx context.Context) error) *CheckProvider {
	return &CheckProvider{BaseProvider: BaseProvider{serviceType: serviceType}, check: check}
}

// HealthCheck runs the check function
func (p *CheckProvider) HealthCheck(ctx context.Context) error {
	return p.check(ctx)
}
