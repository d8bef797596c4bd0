package clock

import "go.uber.org/fx"

// Module provides the wall clock the scheduler and journal stamps run on;
// tests swap in Fixed instead.
var Module = fx.Module("clock",
	fx.Provide(func() Clock {
		return SystemClock{}
	}),
)
