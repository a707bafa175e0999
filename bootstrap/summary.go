package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/voicescribe/component"
)

// Summary renders the startup summary.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a summary for the named service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Write prints the summary: one line per component (using Describe when the
// component implements component.Describable) followed by live health.
func (s *Summary) Write(ctx context.Context, w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var components []component.Component
	if registry != nil {
		components = registry.All()
	}
	if len(components) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	fmt.Fprintf(w, "📦 Components\n")
	for i, c := range components {
		d := describe(c)
		details := d.Details
		if d.Port > 0 && !strings.Contains(details, fmt.Sprintf(":%d", d.Port)) {
			details = fmt.Sprintf("%s (:%d)", details, d.Port)
		}
		line := fmt.Sprintf("%s [%s]", d.Name, d.Type)
		if details != "" {
			line += ": " + details
		}
		fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(components)), line)
	}

	results := registry.HealthAll(ctx)
	healthy := 0
	fmt.Fprintf(w, "\n🏥 Health Check\n")
	for i, h := range results {
		msg := ""
		if h.Message != "" {
			msg = " (" + h.Message + ")"
		}
		if h.Status == component.StatusHealthy {
			healthy++
		}
		fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(results)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
	}
	fmt.Fprintf(w, "\n")

	if healthy == len(results) {
		fmt.Fprintf(w, "✅ All components healthy (%d/%d)\n\n", healthy, len(results))
	} else {
		fmt.Fprintf(w, "⚠️  Some components have issues (%d/%d healthy)\n\n", healthy, len(results))
	}
}

func describe(c component.Component) component.Description {
	var d component.Description
	if dc, ok := c.(component.Describable); ok {
		d = dc.Describe()
	}
	if d.Name == "" {
		d.Name = c.Name()
	}
	if d.Type == "" {
		d.Type = "component"
	}
	return d
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
