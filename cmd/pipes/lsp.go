package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/pipes/server"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "run the language server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		return server.NewLSP(m.TranslatorConfig().Options()...).Run()
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)
}
