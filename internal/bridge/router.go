// Package bridge exposes an RCON session over HTTP.
package bridge

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/luma/rcon/client"
)

// Commander runs a single RCON command. *client.Session satisfies it.
type Commander interface {
	Command(text string) (string, error)
}

type Options struct {
	Session Commander

	// Debug puts gin in debug mode
	Debug bool

	Log *zap.Logger
}

// NewRouter builds the HTTP handler:
//
//   GET  /ping      -> pong
//   POST /command   {"command": "status"} -> {"reply": "..."}
//
// All requests share one session, so commands are executed one at a time.
func NewRouter(options Options) *gin.Engine {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	gin.DisableConsoleColor()
	if !options.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Logs all requests, like a combined access and error log.
	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.POST("/command", commandHandler(options.Session, log))

	return r
}

func commandHandler(session Commander, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil || !gjson.ValidBytes(body) {
			writeError(c, http.StatusBadRequest, client.KindInvalidArgument, "Request body must be JSON")
			return
		}

		command := gjson.GetBytes(body, "command")
		if command.Type != gjson.String {
			writeError(c, http.StatusBadRequest, client.KindInvalidArgument, `Request body must contain a "command" string`)
			return
		}

		reply, err := session.Command(command.String())
		if err != nil {
			kind := client.KindOf(err)
			log.Warn("Command failed",
				zap.String("command", command.String()),
				zap.Stringer("kind", kind),
				zap.Error(err))

			writeError(c, statusFor(kind), kind, err.Error())
			return
		}

		writeJSON(c, http.StatusOK, "reply", reply)
	}
}

func statusFor(kind client.Kind) int {
	switch kind {
	case client.KindInvalidArgument:
		return http.StatusBadRequest
	case client.KindAuthRejected:
		return http.StatusUnauthorized
	case client.KindMalformed, client.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, kind client.Kind, msg string) {
	writeJSON(c, status, "error", msg, "kind", kind.String())
}

// writeJSON writes an object built from key/value pairs.
func writeJSON(c *gin.Context, status int, pairs ...string) {
	body := []byte("{}")

	for i := 0; i+1 < len(pairs); i += 2 {
		var err error
		body, err = sjson.SetBytes(body, pairs[i], pairs[i+1])
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}

	c.Data(status, "application/json; charset=utf-8", body)
}
