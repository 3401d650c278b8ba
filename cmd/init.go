package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kompas/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kompas configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure kompas and writes the config file (.kompas.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
