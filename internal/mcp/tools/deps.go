// Package tools registers the chronos tool catalogue with dependency injection.
package tools

import (
	"github.com/vthunder/chronos/internal/activity"
	"github.com/vthunder/chronos/internal/timemath"
)

// Dependencies holds the services the tools call into
type Dependencies struct {
	Clock    *timemath.Clock
	Activity *activity.Service

	// LocalZone is the resolved host zone, shown in timezone argument help
	LocalZone string
}
