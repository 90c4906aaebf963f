package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/rcon/internal/env"
	"github.com/luma/rcon/storage"
	"github.com/luma/rcon/transport"
)

var (
	// The host the mock server listens on
	mockHost string

	// The port the mock server listens on
	mockPort int

	// Number of SO_REUSEPORT listeners
	mockListeners int

	// JSON object of initial console variables
	mockVarsFile string

	// Log every frame
	mockTrace bool
)

func init() {
	flags := MockCmd.Flags()

	flags.StringVar(&mockHost, "listen-host", "127.0.0.1", "The host to listen for RCON clients on")
	flags.IntVar(&mockPort, "listen-port", 25575, "The port to listen for RCON clients on")
	flags.IntVar(&mockListeners, "listeners", 1, "The number of listeners sharing the port")
	flags.StringVar(&mockVarsFile, "vars", "", "A JSON file of initial console variables")
	flags.BoolVar(&mockTrace, "trace", false, "Log every packet, requires --debug")
}

var MockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a mock RCON server for local testing",
	Long: `Run a mock RCON server for local testing

Usage
	rcon mock --listen-port 25575 --password secret

The server understands "echo <text>", "cvarlist", "<name>" and
"<name> <value>". An empty password (flag or RCON_MOCK_PASSWORD)
accepts any password.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		mockPassword := conf.MockPassword
		if cmd.Flags().Changed("password") {
			mockPassword = password
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

		store := storage.NewInmemoryStore()
		defer store.Close()

		if mockVarsFile != "" {
			values, err := os.ReadFile(mockVarsFile)
			if err != nil {
				return err
			}

			if err := store.Restore(values); err != nil {
				return err
			}
		}

		updates := store.ListenToUpdates()
		go func() {
			for update := range updates {
				log.Info("Variable changed",
					zap.String("name", update.Name),
					zap.String("value", update.Value))
			}
		}()

		tcp := transport.NewTCP(transport.Options{
			Host:         mockHost,
			Port:         mockPort,
			Reuseport:    true,
			NumListeners: mockListeners,
			Password:     mockPassword,
			Store:        store,
			Trace:        mockTrace,
			Log:          log.Named("transport"),
		})

		if err := tcp.Start(ctx); err != nil {
			return err
		}

		log.Info("Listening",
			zap.Stringer("addr", tcp.Addr()),
			zap.Int("listeners", mockListeners),
			zap.Bool("passwordRequired", mockPassword != ""))

		<-ctx.Done()
		signalStop()

		if err := tcp.Close(); err != nil {
			log.Error("TCP server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}
