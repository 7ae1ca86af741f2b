package scan

import (
	"github.com/linecontrol/boxline/internal/scan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scan",
	fx.Provide(service.New),
)
