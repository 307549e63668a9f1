package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available for chat mode",
	RunE:  runModelsList,
}

func runModelsList(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig()
	client := newClient(cfg)

	list, err := client.ListModels(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if len(list.Models) == 0 {
		fmt.Println("No chat models configured on the server.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROVIDER\tNAME")
	_, _ = fmt.Fprintln(w, "--\t--------\t----")

	for _, m := range list.Models {
		name := m.Name
		if m.ID == cfg.DefaultModel {
			name += " (default)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Provider, name)
	}

	return w.Flush()
}
