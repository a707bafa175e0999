package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/voicescribe/component"
)

// Checker is implemented by backends that can verify they are usable.
type Checker interface {
	Check(ctx context.Context) error
}

// Component exposes a Storage to the component registry for health reporting
// and the startup summary. The storage itself is created eagerly by New.
type Component struct {
	storage  Storage
	provider string
	basePath string
}

// NewComponent wraps an existing Storage.
func NewComponent(s Storage, cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{storage: s, provider: cfg.Provider, basePath: cfg.BasePath}
}

var _ component.Component = (*Component)(nil)

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start is a no-op; the working directory is created when the storage is built.
func (c *Component) Start(context.Context) error { return nil }

// Stop is a no-op; pending cleanups are drained by the pipeline.
func (c *Component) Stop(context.Context) error { return nil }

// Health reports whether the working directory is usable.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if chk, ok := c.storage.(Checker); ok {
		if err := chk.Check(ctx); err != nil {
			h.Status = component.StatusUnhealthy
			h.Message = err.Error()
		}
	}
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Working files",
		Type:    "storage",
		Details: fmt.Sprintf("provider=%s path=%s", c.provider, c.basePath),
	}
}
