package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/luma/rcon/client"
	"github.com/luma/rcon/internal/env"
)

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*env.Config, error) {
	conf, err := env.LoadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("host") {
		conf.Host = host
	}
	if flags.Changed("port") {
		conf.Port = port
	}
	if flags.Changed("password") {
		conf.Password = password
	}
	if flags.Changed("charset") {
		conf.Charset = charset
	}
	if flags.Changed("timeout") {
		conf.Timeout = timeout
	}
	if flags.Changed("debug") {
		conf.Debug = debug
	}

	return conf, nil
}

func connect(ctx context.Context, conf *env.Config, log *zap.Logger) (*client.Session, error) {
	return client.Dial(ctx, conf.Host, conf.Port, conf.Password, client.Options{
		Charset: conf.Charset,
		Timeout: conf.Timeout,
		Log:     log.Named("client"),
	})
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// askPassword reads a password from the terminal without echoing it.
func askPassword() (string, error) {
	fmt.Fprint(os.Stderr, "The password for RCON: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	return string(b), nil
}
