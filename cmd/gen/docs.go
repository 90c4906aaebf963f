package gen

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/luma/rcon/internal/meta"
)

var (
	docsDir    string
	docsFormat string
)

var DocsCmd = &cobra.Command{
	Use:     "docs",
	Aliases: []string{"man"},
	Short:   "Generate man pages or markdown for every rcon command",
	Long: `Writes one page per command of the rcon CLI into --dir, as troff man
pages (--format man, the default) or markdown (--format markdown).`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsDir, 0750); err != nil {
			return fmt.Errorf("Failed to create %s: %w", docsDir, err)
		}

		root := cmd.Root()
		root.DisableAutoGenTag = true

		switch docsFormat {
		case "man":
			header := &doc.GenManHeader{
				Section: "1",
				Manual:  "RCON client manual",
				Source:  "rcon " + meta.Version,
			}

			if err := doc.GenManTree(root, header, docsDir); err != nil {
				return err
			}

		case "markdown", "md":
			if err := doc.GenMarkdownTree(root, docsDir); err != nil {
				return err
			}

		default:
			return fmt.Errorf("Unknown format %q, expected man or markdown", docsFormat)
		}

		cmd.Printf("Wrote %s pages to %s\n", docsFormat, docsDir)
		return nil
	},
}

func init() {
	flags := DocsCmd.Flags()

	flags.StringVar(&docsDir, "dir", "man", "directory to write the pages to")
	flags.StringVar(&docsFormat, "format", "man", "page format: man or markdown")

	// For bash-completion
	if err := flags.SetAnnotation("dir", cobra.BashCompSubdirsInDir, []string{}); err != nil {
		panic(err)
	}
}
