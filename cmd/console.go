package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luma/rcon/client"
	"github.com/luma/rcon/internal/env"
)

var ConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start an interactive RCON console",
	Long: `Start an interactive RCON console

Usage
	rcon console --host 127.0.0.1 --port 25575

Type commands at the RCON> prompt, "exit" or end of input quits.
`,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := env.MakeLogger(env.LogLevel(conf.Debug))
	if err != nil {
		return err
	}
	defer log.Sync()

	interactive := isTerminal()

	if interactive {
		if err := askAddress(cmd, conf); err != nil {
			return err
		}
	}

	if conf.Password == "" && interactive {
		if conf.Password, err = askPassword(); err != nil {
			return err
		}
	}

	session, err := connect(cmd.Context(), conf, log)
	if err != nil {
		return err
	}
	defer session.Close()

	if interactive {
		pterm.Println()
	}

	return runLoop(os.Stdin, os.Stdout, os.Stderr, session, interactive)
}

// commander is the part of a client.Session the console loop needs.
type commander interface {
	Command(text string) (string, error)
}

// runLoop reads commands line by line from in until "exit" or end of input.
// Replies go to out, command errors to errOut. The RCON> prompt is only
// printed when prompt is set.
func runLoop(in io.Reader, out, errOut io.Writer, session commander, prompt bool) error {
	errPrinter := pterm.Error.WithWriter(errOut)

	lines := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "RCON> ")
		}

		if !lines.Scan() {
			break
		}

		line := lines.Text()
		if line == "" {
			continue
		}

		if strings.TrimSpace(line) == "exit" {
			break
		}

		reply, err := session.Command(line)
		if err != nil {
			errPrinter.Println(err.Error())
			fmt.Fprintln(errOut)
			continue
		}

		fmt.Fprintln(out, reply)
		if reply != "" {
			fmt.Fprintln(out)
		}
	}

	if err := lines.Err(); err != nil {
		return err
	}

	fmt.Fprintln(out, "Bye bye!")
	return nil
}

// askAddress prompts for the host and port unless a flag or the environment
// already provided them.
func askAddress(cmd *cobra.Command, conf *env.Config) error {
	if !cmd.Flags().Changed("host") && !isSetInEnv("RCON_HOST") {
		answer, err := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("The server IP or domain name (default %s)", conf.Host)).
			Show()
		if err != nil {
			return err
		}

		if answer = strings.TrimSpace(answer); answer != "" {
			conf.Host = answer
		}
	}

	if !cmd.Flags().Changed("port") && !isSetInEnv("RCON_PORT") {
		answer, err := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("The RCON network port (default %d)", client.DefaultPort)).
			Show()
		if err != nil {
			return err
		}

		if answer = strings.TrimSpace(answer); answer != "" {
			p, err := strconv.Atoi(answer)
			if err != nil {
				return fmt.Errorf("Wrong port: %s", answer)
			}

			if p < 1 || p > 65535 {
				return fmt.Errorf("Port %d is out of range", p)
			}

			conf.Port = p
		}
	}

	return nil
}

func isSetInEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
