package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/rcon/internal/bridge"
	"github.com/luma/rcon/internal/env"
)

var (
	// The host the bridge listens on
	bridgeHost string

	// The port the bridge listens on
	bridgePort int
)

func init() {
	flags := BridgeCmd.Flags()

	flags.StringVar(&bridgeHost, "http-host", "127.0.0.1", "The host to listen to HTTP requests on")
	flags.IntVar(&bridgePort, "http-port", 7362, "The port to listen to HTTP requests on")
}

var BridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Expose an RCON server over HTTP",
	Long: `Expose an RCON server over HTTP

Usage
	rcon bridge --host game.example.com --password secret --http-port 7362

	curl -d '{"command":"status"}' http://127.0.0.1:7362/command

Commands from all HTTP clients share one RCON connection and run one at a time.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("http-host") {
			conf.BridgeHost = bridgeHost
		}
		if cmd.Flags().Changed("http-port") {
			conf.BridgePort = bridgePort
		}

		level := zap.InfoLevel
		if conf.Debug {
			level = zap.DebugLevel
		}

		log, err := env.MakeLogger(level)
		if err != nil {
			return err
		}
		defer log.Sync()

		session, err := connect(ctx, conf, log)
		if err != nil {
			log.Error("Failed to connect to RCON server",
				zap.String("host", conf.Host),
				zap.Int("port", conf.Port),
				zap.Error(err))
			return err
		}

		defer func() {
			if err := session.Close(); err != nil {
				log.Warn("RCON connection did not close cleanly", zap.Error(err))
			}
		}()

		router := bridge.NewRouter(bridge.Options{
			Session: session,
			Debug:   conf.DebugHTTP,
			Log:     log.Named("bridge"),
		})

		s := &http.Server{
			Addr:    net.JoinHostPort(conf.BridgeHost, strconv.Itoa(conf.BridgePort)),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
				signalStop()
			}
		}()

		log.Info("Listening",
			zap.String("addr", s.Addr),
			zap.String("rconHost", conf.Host),
			zap.Int("rconPort", conf.Port))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}
