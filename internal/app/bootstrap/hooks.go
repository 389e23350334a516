// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle. app.Run calls them in
// order: config, DB, schema, startup, handler, then shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "pulse",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,    // mongo or postgres, per store_backend
	EnsureSchema:   EnsureSchema, // mongo indexes incl. the unique snapshot key
	Startup:        Startup,      // snapshot refresh runner
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
