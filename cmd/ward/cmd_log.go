package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/metadata"
)

var (
	logLimit  int
	logAction string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the change history, newest first",
	Long: `Print the append-only history ledger. Entries produced by the same
invocation share one action id and are shown under a common timestamp.
Filter with --type track or --type delete.`,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	var filter *metadata.ActionType
	if logAction != "" {
		action, err := metadata.ParseAction(logAction)
		if err != nil {
			return err
		}
		filter = &action
	}

	entries, err := sess.DB.History(logLimit, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No history.")
		return nil
	}

	var lastAction int64 = -1
	for _, h := range entries {
		if h.ActionID != lastAction {
			fmt.Printf("%s\n", h.ActionTime().Format("2006-01-02 15:04:05 MST"))
			lastAction = h.ActionID
		}
		line := fmt.Sprintf("  %-6s %s", h.Action, h.Path)
		if h.Checksum.Valid {
			line += "  " + h.Checksum.String[:12]
		}
		if h.Size.Valid {
			line += fmt.Sprintf("  %d bytes", h.Size.Int64)
		}
		fmt.Println(line)
	}
	return nil
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 50, "maximum entries to show")
	logCmd.Flags().StringVarP(&logAction, "type", "t", "", "filter by action type (track or delete)")
	rootCmd.AddCommand(logCmd)
}
