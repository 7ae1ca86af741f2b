package label

import "go.uber.org/fx"

var Module = fx.Module("label",
	fx.Provide(NewRenderer),
)
