package status

// Service wraps Registry as a Service
// Registry is stateless at init; service wrapper provides lifecycle conformance
type Service struct {
	registry *Registry
}

// NewService creates a new status service with initialized registry
func NewService() *Service {
	return &Service{
		registry: NewRegistry(),
	}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "status"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
func (s *Service) Init(args ...any) error {
	return nil
}

// Start implements service.Service
func (s *Service) Start() error {
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	return nil
}

// Registry returns the underlying metrics registry
func (s *Service) Registry() *Registry {
	return s.registry
}
