package router

import (
	"github.com/bakehouse/console/internal/container"
	"github.com/bakehouse/console/internal/guard"
	handlers "github.com/bakehouse/console/internal/interface/http"
	"github.com/bakehouse/console/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	policy := guard.DefaultPolicy()
	logger := container.GetLogger()

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(logger, policy), policy))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(logger, policy), policy))
	r.Add(modules.NewHealthModule())
}
