package batch

import (
	"github.com/linecontrol/boxline/internal/batch/repository"
	"github.com/linecontrol/boxline/internal/batch/service"
	"go.uber.org/fx"
)

var Module = fx.Module("batch",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
