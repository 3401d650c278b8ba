package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kompas/internal/progress"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the documents in the watched directory",
	Long: `Loads every document in the watched directory, splits it into chunks and
builds the retrieval index once, then reports what was indexed. Useful to
check that documents load before starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(os.Stderr, cfg.LogLevel)

		var reporter progress.Reporter = progress.NewReporter()
		if indexJSON {
			reporter = progress.Nop{}
		}

		ctx := context.Background()
		a, err := buildApp(ctx, cfg, logger, reporter)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.bot.IndexCorpus(ctx)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", cfg.UploadDir, err)
		}

		if indexJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Printf("Indexed %d file(s) from %s\n", res.NewFiles, cfg.UploadDir)
		fmt.Printf("  Documents loaded: %d\n", res.NewDocuments)
		fmt.Printf("  Chunks: %d\n", res.TotalChunks)
		if res.NewFiles > res.NewDocuments {
			fmt.Printf("  Skipped %d file(s) not matching %v\n", res.NewFiles-res.NewDocuments, cfg.RequiredExts)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(indexCmd)
}
