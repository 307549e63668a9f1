package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List council rooms",
	Long: `List the council rooms configured on the server.

Each room is a themed panel of models with its own chairman. The
default room is marked in the listing.`,
	RunE: runRoomsList,
}

var roomsDetectCmd = &cobra.Command{
	Use:   "detect <prompt>",
	Short: "Ask the server which room fits a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRoomsDetect,
}

func init() {
	roomsCmd.AddCommand(roomsDetectCmd)
}

func runRoomsList(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())

	list, err := client.ListRooms(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	if len(list.Rooms) == 0 {
		fmt.Println("No rooms configured on the server.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "--\t----\t-----------")

	for _, room := range list.Rooms {
		name := room.Name
		if room.Icon != "" {
			name = room.Icon + " " + name
		}
		if room.ID == list.Default {
			name += " (default)"
		}
		desc := room.Description
		if len(desc) > 60 {
			desc = desc[:60] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", room.ID, name, desc)
	}

	return w.Flush()
}

func runRoomsDetect(cmd *cobra.Command, args []string) error {
	client := newClient(loadedConfig())
	prompt := strings.Join(args, " ")

	detection, err := client.DetectRoom(context.Background(), prompt)
	if err != nil {
		return fmt.Errorf("room detection failed: %w", err)
	}

	fmt.Printf("Detected room: %s", detection.DetectedRoom)
	if detection.RoomName != "" {
		fmt.Printf(" (%s %s)", detection.RoomIcon, detection.RoomName)
	}
	fmt.Println()
	if detection.RoomDescription != "" {
		fmt.Println(detection.RoomDescription)
	}
	return nil
}
