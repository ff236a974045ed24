package generation

import "go.uber.org/fx"

var Module = fx.Module("generation",
	fx.Provide(func() Backend { return NewDemoBackend() }),
)
