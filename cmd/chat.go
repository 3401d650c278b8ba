package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kompas/internal/corpus"
)

var chatSkipIndex bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive chat. The watched directory is indexed first unless
--no-index is given. Type /history to print the conversation, /reset to start
over and /exit (or Ctrl-D) to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		a, err := buildApp(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if !chatSkipIndex {
			res, err := a.bot.IndexCorpus(ctx)
			switch {
			case errors.Is(err, corpus.ErrCorpusAccess):
				fmt.Fprintf(os.Stderr, "Note: %s is not readable; answering without documents.\n", cfg.UploadDir)
			case err != nil:
				return fmt.Errorf("indexing: %w", err)
			default:
				fmt.Fprintf(os.Stderr, "Indexed %d file(s), %d chunk(s).\n", res.NewFiles, res.TotalChunks)
			}
		}

		for {
			prompt := promptui.Prompt{Label: "You"}
			line, err := prompt.Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			switch strings.TrimSpace(line) {
			case "":
				continue
			case "/exit", "/quit":
				return nil
			case "/reset":
				a.bot.ResetHistory()
				fmt.Println("Conversation reset.")
				continue
			case "/history":
				data, _ := json.MarshalIndent(a.bot.History(), "", "  ")
				fmt.Println(string(data))
				continue
			}

			reply, err := a.bot.Chat(ctx, line)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Printf("\nKompas: %s\n\n", reply)
		}
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatSkipIndex, "no-index", false, "skip indexing the watched directory")
	rootCmd.AddCommand(chatCmd)
}
