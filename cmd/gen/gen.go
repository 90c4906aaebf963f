package gen

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate documentation for the rcon client",
	Long:  `Generate documentation for the rcon client, as man pages or markdown`,
}

func init() {
	RootCmd.AddCommand(DocsCmd)
}
