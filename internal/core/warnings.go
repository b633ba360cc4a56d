package core

import "sync"

// WarningSink receives non-fatal compatibility notices: a legacy schema
// upgrade, a remembered-stage mismatch, a founderless extension request.
// Warnings are observability only and never change returned values.
type WarningSink func(msg string)

// WarningCollector is the default sink: it retains warnings for later
// inspection. Safe for concurrent use.
type WarningCollector struct {
	mu   sync.Mutex
	msgs []string
}

// Sink returns the collector's WarningSink.
func (c *WarningCollector) Sink() WarningSink {
	return func(msg string) {
		c.mu.Lock()
		c.msgs = append(c.msgs, msg)
		c.mu.Unlock()
	}
}

// Warnings returns a copy of the collected messages in emission order.
func (c *WarningCollector) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}
