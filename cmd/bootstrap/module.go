package bootstrap

import (
	"studio-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	components.PersistenceModule,
	components.InfraModule,
	components.UseCaseModule,
	components.HandlerModule,
	components.WorkerModule,
)
