package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/llmcouncil/internal/history"
	"github.com/diogo/llmcouncil/internal/models"
	"github.com/diogo/llmcouncil/internal/render"
)

var (
	exportFormatFlag string
	exportOutputFlag string
	exportStagesFlag bool
	clearForceFlag   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage server conversations",
	Long:  `View, export and delete conversations stored on the council server.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a conversation as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	RunE:  runHistoryClear,
}

func init() {
	historyExportCmd.Flags().StringVar(&exportFormatFlag, "format", "markdown", "Export format: markdown or json")
	historyExportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "Write the export to a file")
	historyExportCmd.Flags().BoolVar(&exportStagesFlag, "stages", true, "Include the full council transcript")
	historyClearCmd.Flags().BoolVar(&clearForceFlag, "force", false, "Skip the confirmation prompt")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())

	conversations, err := client.ListConversations(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t-------")

	for _, conv := range conversations {
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		if len(title) > 50 {
			title = title[:50] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			conv.ID, title, conv.MessageCount, conv.CreatedAt)
	}

	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())

	conv, err := client.GetConversation(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("conversation not found: %w", err)
	}

	fmt.Printf("ID: %s\n", conv.ID)
	if conv.Title != "" {
		fmt.Printf("Title: %s\n", conv.Title)
	}
	fmt.Printf("Created: %s\n", conv.CreatedAt)
	fmt.Printf("Messages: %d\n", len(conv.Messages))
	fmt.Println()

	for i := range conv.Messages {
		msg := &conv.Messages[i]
		role := "You"
		if msg.Role == models.RoleAssistant {
			role = fmt.Sprintf("Council (%s)", msg.ModeLabel())
		}
		fmt.Printf("[%d] %s:\n", i+1, role)

		content := msg.FinalText()
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Printf("  %s\n\n", strings.ReplaceAll(content, "\n", "\n  "))
	}

	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())

	conv, err := client.GetConversation(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("conversation not found: %w", err)
	}

	opts := history.ExportOptions{
		Format:        history.ExportFormat(exportFormatFlag),
		IncludeStages: exportStagesFlag,
	}
	out, err := history.Export(conv, opts)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOutputFlag != "" {
		if err := os.WriteFile(exportOutputFlag, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Exported conversation to %s\n", exportOutputFlag)
		return nil
	}

	if isStdoutTTY() && opts.Format == history.ExportFormatMarkdown {
		rendered, err := render.MarkdownWithWidth(out, getTerminalWidth()-4)
		if err == nil {
			fmt.Print(rendered)
			return nil
		}
	}

	fmt.Print(out)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())

	if err := client.DeleteConversation(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Printf("Deleted conversation: %s\n", args[0])
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())

	if !clearForceFlag {
		fmt.Print("Delete ALL conversations on the server? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := client.DeleteAllConversations(context.Background()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Println("All conversations deleted.")
	return nil
}
