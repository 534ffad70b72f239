package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/dedup"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Report tracked files with identical content",
	Long: `List groups of live tracked files sharing a checksum, largest first,
with the total bytes the extra working copies cost. The report is
read-only; the object store already keeps a single copy per checksum.`,
	RunE: runDedup,
}

func runDedup(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	report, err := dedup.Build(sess)
	if err != nil {
		return err
	}
	if len(report.Groups) == 0 {
		fmt.Println("No duplicate files.")
		return nil
	}

	for _, g := range report.Groups {
		fmt.Printf("%s  %d bytes x %d copies\n", g.Checksum[:12], g.Size, len(g.Paths))
		for _, p := range g.Paths {
			fmt.Printf("  %s\n", p)
		}
	}
	fmt.Printf("\n%d group(s), %d bytes duplicated in the working tree.\n",
		len(report.Groups), report.WastedBytes)
	return nil
}

func init() {
	rootCmd.AddCommand(dedupCmd)
}
