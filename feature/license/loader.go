package license

import (
	"license-manager/feature/license/store"
	"license-manager/feature/license/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the license feature around an already-wired engine.
// archiver may be nil when report archiving is disabled.
func NewFeature(engine *sync.Engine, external store.ExternalStore, internal store.InternalStore, archiver *sync.ReportArchiver, logger *zap.Logger) *Feature {
	svc := NewService(engine, external, internal, archiver, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "license"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
