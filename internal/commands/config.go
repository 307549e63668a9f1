package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/diogo/llmcouncil/internal/config"
	"github.com/diogo/llmcouncil/internal/models"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Show the current configuration, or change a setting.

Settings:
  url          Council server base URL
  mode         Default answer mode (chat, council, image, file)
  room         Default council room
  model        Default chat-mode model
  auto-detect  Ask the server to pick a room per prompt (true/false)
  stream       Print stage progress during one-shot queries (true/false)
  clipboard    Copy answers to the clipboard (true/false)
  verbose      Verbose logging (true/false)`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig()

	path, _ := config.GetConfigPath()
	fmt.Printf("Config file: %s\n\n", path)
	fmt.Printf("url          %s\n", cfg.BaseURL)
	fmt.Printf("mode         %s\n", cfg.DefaultMode)
	fmt.Printf("room         %s\n", cfg.DefaultRoom)
	fmt.Printf("model        %s\n", cfg.DefaultModel)
	fmt.Printf("auto-detect  %t\n", cfg.AutoDetectRoom)
	fmt.Printf("stream       %t\n", cfg.Stream)
	fmt.Printf("clipboard    %t\n", cfg.CopyToClipboard)
	fmt.Printf("verbose      %t\n", cfg.Verbose)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch key {
	case "url":
		cfg.BaseURL = value
	case "mode":
		if !models.IsValidMode(value) {
			return fmt.Errorf("invalid mode %q (want chat, council, image or file)", value)
		}
		cfg.DefaultMode = value
	case "room":
		cfg.DefaultRoom = value
	case "model":
		cfg.DefaultModel = value
	case "auto-detect":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.AutoDetectRoom = b
	case "stream":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.Stream = b
	case "clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.CopyToClipboard = b
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.Verbose = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}
