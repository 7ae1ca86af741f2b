package box

import (
	"github.com/linecontrol/boxline/internal/box/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("box",
	fx.Provide(repository.Provide),
)
