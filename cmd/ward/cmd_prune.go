package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/prune"
)

var (
	pruneDryRun bool
	pruneForce  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired history and unreferenced objects",
	Long: `Delete history entries older than the retention window
(prune.retention_days) that no longer describe live state, then remove
any stored object that nothing references anymore. History matching a
currently tracked file is always kept, whatever its age.

Metadata is deleted first in a single transaction; objects are unlinked
only after it commits.`,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	plan, err := prune.Compute(sess)
	if err != nil {
		return err
	}

	if plan.HistoryCount() == 0 && plan.ObjectCount() == 0 {
		fmt.Println("Nothing to prune.")
		return nil
	}
	fmt.Printf("Would remove %d history entries and %d objects (retention %d days).\n",
		plan.HistoryCount(), plan.ObjectCount(), sess.Settings.RetentionDays)

	if pruneDryRun {
		return nil
	}
	if !pruneForce && !confirm("Proceed?") {
		fmt.Println("Aborted.")
		return nil
	}

	res, err := prune.Apply(sess, plan)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d history entries and %d objects.\n",
		res.HistoryRemoved, res.ObjectsRemoved)
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be removed without removing it")
	pruneCmd.Flags().BoolVarP(&pruneForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(pruneCmd)
}
