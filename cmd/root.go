package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/luma/rcon/cmd/gen"
)

var (
	// The RCON server host
	host string

	// The RCON server port
	port int

	// The RCON password
	password string

	// The charset used for command text
	charset string

	// Socket timeout, 0 means none
	timeout time.Duration

	// Log packets and lifecycle events
	debug bool
)

var RootCmd = &cobra.Command{
	Use:   "rcon",
	Short: "A Source RCON client",
	Long: `A Source RCON client

Connects to a game server's remote console and runs commands on it.
Without a subcommand it starts the interactive console.

Every connection flag can also be set in the environment (RCON_HOST,
RCON_PORT, RCON_PASSWORD, RCON_CHARSET, RCON_TIMEOUT, RCON_DEBUG) or in
a .env.local file.
`,
	SilenceUsage: true,
	RunE:         runConsole,
}

func init() {
	flags := RootCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "H", "127.0.0.1", "The RCON server host")
	flags.IntVarP(&port, "port", "p", 25575, "The RCON server port")
	flags.StringVarP(&password, "password", "P", "", "The RCON password, prompted for when empty")
	flags.StringVarP(&charset, "charset", "c", "UTF-8", "The charset used for commands and replies")
	flags.DurationVarP(&timeout, "timeout", "t", 0, "Socket timeout, 0 waits forever")
	flags.BoolVar(&debug, "debug", false, "Log packets and connection events to stderr")

	RootCmd.AddCommand(ConsoleCmd)
	RootCmd.AddCommand(ExecCmd)
	RootCmd.AddCommand(BridgeCmd)
	RootCmd.AddCommand(MockCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
