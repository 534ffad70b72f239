package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/integrity"
	"github.com/fwdware/ward/internal/progress"
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Track new files and record deletions",
	Long: `Scan a directory (the whole repository when omitted), checksum every
untracked file, store its content in the object store and add it to the
metadata database. Tracked files under the same path that no longer exist
on disk are recorded as deleted. Files matching the ignore rules are
skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	spin := progress.Start("scanning and hashing")
	res, failures, err := integrity.New(sess).Add(path)
	if err != nil {
		spin.Stop("add failed")
		return err
	}
	spin.Stop(fmt.Sprintf("%d added, %d deleted", res.Added, res.Deleted))

	for _, f := range failures {
		fmt.Printf("  skipped %s: %v\n", f.Path, f.Err)
	}
	if res.Failed > 0 {
		fmt.Printf("%d file(s) could not be read\n", res.Failed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(addCmd)
}
