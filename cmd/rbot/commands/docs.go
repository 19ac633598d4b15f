package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	builtin "github.com/keshon/rbot/internal/commands"
	"github.com/keshon/rbot/internal/docs"
)

func newDocsCmd() *cobra.Command {
	var tmplPath, outPath string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Print the command reference, or render it into README.md",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := builtin.Build(builtin.Deps{Logger: zerolog.Nop()})
			if err != nil {
				return err
			}
			if tmplPath == "" {
				return docs.Render(cmd.OutOrStdout(), "", reg)
			}
			return docs.UpdateReadme(reg, tmplPath, outPath)
		},
	}

	cmd.Flags().StringVar(&tmplPath, "template", "", "README template with a {{.CommandSections}} placeholder")
	cmd.Flags().StringVar(&outPath, "out", "README.md", "file written when --template is set")
	return cmd
}
