package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kompas/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kompas",
	Short: "Career counselling assistant that answers from your documents",
	Long: `Kompas is a conversational career counsellor. Documents dropped into the
watched directory are indexed and used to answer questions when they are
relevant; otherwise the language model answers directly. The conversation
is kept across turns and can be exported, replaced or reset.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
