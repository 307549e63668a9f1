// Package commands provides CLI commands for llmcouncil.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/llmcouncil/internal/api"
	"github.com/diogo/llmcouncil/internal/config"
	"github.com/diogo/llmcouncil/internal/models"
)

var (
	// Global flags
	urlFlag    string
	modeFlag   string
	roomFlag   string
	modelFlag  string
	outputFlag string
	fileFlag   string
	attachFlag string
	rawFlag    bool
	streamFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "llmcouncil [prompt]",
	Short: "CLI for the LLM Council deliberation server",
	Long: `llmcouncil is a command-line interface for the LLM Council server.
A council of models answers your question in parallel, ranks each
other's anonymized answers, and a chairman synthesizes the verdict.

Examples:
  llmcouncil chat                          Start interactive chat
  llmcouncil "Should we rewrite in Rust?"  Ask the council once
  llmcouncil --mode chat "What is Go?"     Ask a single model
  llmcouncil -f prompt.md --room design    Read prompt from file
  cat prompt.md | llmcouncil               Read prompt from stdin
  llmcouncil "Hello" -o verdict.md         Save the verdict to a file
  llmcouncil rooms                         List council rooms
  llmcouncil history list                  List server conversations`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("llmcouncil %s (built %s)\n", Version, BuildTime)
			return nil
		}

		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), rawFlag || !isStdoutTTY())
		}

		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), rawFlag || !isStdoutTTY())
		}

		if len(args) > 0 {
			return runQuery(args[0], rawFlag || !isStdoutTTY())
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "Council server base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Answer mode: chat, council, image or file")
	rootCmd.PersistentFlags().StringVar(&roomFlag, "room", "", "Council room (e.g. decision, design)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model for chat mode (e.g. openai/gpt-5.1)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the final answer to a file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().StringVarP(&attachFlag, "attach", "a", "", "Attach a document or image to the message")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the raw answer without decoration")
	rootCmd.Flags().BoolVar(&streamFlag, "stream", false, "Print stage progress as the council deliberates")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// loadedConfig loads the user config, falling back to defaults on error
func loadedConfig() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// newClient builds the API client from flags and config
func newClient(cfg config.Config) api.CouncilAPI {
	baseURL := cfg.BaseURL
	if urlFlag != "" {
		baseURL = urlFlag
	}
	return api.NewClient(api.WithBaseURL(baseURL))
}

// getMode resolves the answer mode from flag or config
func getMode(cfg config.Config) (models.Mode, error) {
	if modeFlag != "" {
		if !models.IsValidMode(modeFlag) {
			return "", fmt.Errorf("invalid mode %q (want chat, council, image or file)", modeFlag)
		}
		return models.ModeFromName(modeFlag), nil
	}
	if models.IsValidMode(cfg.DefaultMode) {
		return models.ModeFromName(cfg.DefaultMode), nil
	}
	return models.DefaultMode, nil
}

// getRoom resolves the council room from flag or config
func getRoom(cfg config.Config) string {
	if roomFlag != "" {
		return roomFlag
	}
	if cfg.DefaultRoom != "" {
		return cfg.DefaultRoom
	}
	return models.DefaultRoom
}

// getModel resolves the chat-mode model from flag or config
func getModel(cfg config.Config) string {
	if modelFlag != "" {
		return modelFlag
	}
	return cfg.DefaultModel
}
