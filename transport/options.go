package transport

import (
	"github.com/luma/rcon/storage"
	"go.uber.org/zap"
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on. Zero picks a free port, see TCP.Addr()
	Port int

	// Reuseport controls setting SO_REUSEPORT. Without it only one listener
	// is started.
	Reuseport bool

	// Trace will log every frame at debug level. This is only useful in local debugging
	Trace bool

	NumListeners int

	// Password clients must authenticate with. Empty accepts any password.
	Password string

	// Store backs the default console. Ignored when Handler is set.
	Store storage.Store

	// Handler executes authenticated commands. Defaults to a Console over Store.
	Handler Handler

	Log *zap.Logger
}
