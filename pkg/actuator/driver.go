// Package actuator owns the single physical actuator: the driver that sets
// its level and the controller that validates commands, applies them, and
// triggers the status echo.
package actuator

import (
	"sync"
)

// Driver sets the physical actuator level. At this layer the write is
// treated as infallible; hardware-level faults are handled (and logged)
// inside implementations.
type Driver interface {
	Set(on bool)
}

// MemoryDriver is an in-process Driver used when the node runs without
// hardware, and by tests.
type MemoryDriver struct {
	mu sync.Mutex
	on bool
}

// Set records the requested level.
func (d *MemoryDriver) Set(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = on
}

// Level reports the last level set.
func (d *MemoryDriver) Level() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}
