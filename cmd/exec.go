package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luma/rcon/internal/env"
)

var ExecCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Run a single RCON command and print the reply",
	Long: `Run a single RCON command and print the reply

Usage
	rcon exec --password secret list
	rcon exec say "hello everyone"

Arguments are joined with spaces to form the command.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log, err := env.MakeLogger(env.LogLevel(conf.Debug))
		if err != nil {
			return err
		}
		defer log.Sync()

		if conf.Password == "" && isTerminal() {
			if conf.Password, err = askPassword(); err != nil {
				return err
			}
		}

		session, err := connect(cmd.Context(), conf, log)
		if err != nil {
			return err
		}
		defer session.Close()

		reply, err := session.Command(strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, reply)
		if reply != "" && !strings.HasSuffix(reply, "\n") {
			fmt.Fprintln(out)
		}

		return nil
	},
}
