package controllers

import (
	"context"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/krateoplatformops/oascontracts/internal/controllers/command"
	"github.com/krateoplatformops/oascontracts/internal/controllers/definition"
	"github.com/krateoplatformops/oascontracts/internal/controllers/restdefinition"
)

// Setup registers the commands of every controller on app.
func Setup(ctx context.Context, app *kingpin.Application, o *command.Options) {
	for _, setup := range []func(context.Context, *kingpin.Application, *command.Options){
		definition.Setup,
		restdefinition.Setup,
	} {
		setup(ctx, app, o)
	}
}
