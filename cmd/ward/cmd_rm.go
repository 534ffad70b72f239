package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/integrity"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Stop tracking files without touching the working tree",
	Long: `Remove the live metadata rows for every tracked file under path and
append Delete entries to the history. The files on disk and their stored
objects are left alone; prune reclaims the objects once the history
expires.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	n, err := integrity.New(sess).Untrack(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Stopped tracking %d file(s).\n", n)
	return nil
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
