// Package lifecycle holds shared constants for component start/stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds how long a single lifecycle hook (ping, shutdown,
// close) may take before the process gives up on it.
const DefaultTimeout = 10 * time.Second
