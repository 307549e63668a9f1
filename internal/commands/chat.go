package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/llmcouncil/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the council.

Messages are answered in the configured mode: a full council run
(three deliberation stages), a single model in chat mode, or image
generation. Switch at any time with /mode, /rooms and /model.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	cfg := loadedConfig()
	client := newClient(cfg)

	mode, err := getMode(cfg)
	if err != nil {
		return err
	}

	spin := newSpinner("Contacting council server")
	spin.start()
	if err := client.Health(context.Background()); err != nil {
		spin.stopWithError()
		fmt.Println(formatErrorMessage(err, "Server unreachable"))
		return fmt.Errorf("server unreachable: %w", err)
	}
	spin.stopWithSuccess("Connected")

	return tui.RunChat(client, mode, getRoom(cfg), getModel(cfg))
}
